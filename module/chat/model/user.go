package model

import "time"

const UserTableName = "users"

// User carries only what the realtime core reads and writes: identity for
// the auth boundary plus the persisted online projection. IsOnline and
// LastActive lag the in-memory registry; the reconciliation loop keeps
// them honest.
type User struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	IsOnline   bool      `bson:"is_online" json:"isOnline"`
	LastActive time.Time `bson:"last_active" json:"lastActive"`
}

func (*User) GetTableName() string { return UserTableName }
