package database

import "go.mongodb.org/mongo-driver/mongo"

// Table is implemented by every persisted document model.
type Table interface {
	GetTableName() string
}

// Collection resolves a model's collection handle.
func Collection(db *mongo.Database, t Table) *mongo.Collection {
	return db.Collection(t.GetTableName())
}
