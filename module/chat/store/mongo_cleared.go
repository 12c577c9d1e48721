package store

import (
	"context"
	"time"

	"Linkup/data/database"
	"Linkup/module/chat/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoClearedChatStore struct {
	coll *mongo.Collection
}

func NewMongoClearedChatStore(db *mongo.Database) *MongoClearedChatStore {
	return &MongoClearedChatStore{coll: database.Collection(db, &model.ClearedChat{})}
}

func (s *MongoClearedChatStore) Upsert(ctx context.Context, userID, otherID string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "chat_with_user_id": otherID},
		bson.M{"$set": bson.M{"cleared_at": at}},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "upsert cleared chat")
}

func (s *MongoClearedChatStore) Get(ctx context.Context, userID, otherID string) (*model.ClearedChat, error) {
	var c model.ClearedChat
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID, "chat_with_user_id": otherID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cleared chat")
	}
	return &c, nil
}
