package store

import (
	"context"
	"time"

	"Linkup/data/database"
	"Linkup/module/chat/model"
	errs "Linkup/tools/errs"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoGroupMessageStore struct {
	coll *mongo.Collection
}

func NewMongoGroupMessageStore(db *mongo.Database) *MongoGroupMessageStore {
	return &MongoGroupMessageStore{coll: database.Collection(db, &model.GroupMessage{})}
}

func (s *MongoGroupMessageStore) Insert(ctx context.Context, m *model.GroupMessage) error {
	_, err := s.coll.InsertOne(ctx, m)
	return errors.Wrap(err, "insert group message")
}

func (s *MongoGroupMessageStore) Get(ctx context.Context, id string) (*model.GroupMessage, error) {
	var m model.GroupMessage
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("group message " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get group message")
	}
	return &m, nil
}

// MarkRead pushes a receipt only when none exists for userID yet; the
// filter makes repeated calls no-ops, so readBy never holds duplicates.
func (s *MongoGroupMessageStore) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "read_by.user_id": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"read_by": model.ReadReceipt{UserID: userID, ReadAt: at}}},
	)
	return errors.Wrap(err, "mark group message read")
}

func (s *MongoGroupMessageStore) SoftDelete(ctx context.Context, id string) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"is_deleted": true}})
	return errors.Wrap(err, "soft delete group message")
}

func (s *MongoGroupMessageStore) UnreadCount(ctx context.Context, groupID, userID string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"group_id":        groupID,
		"is_deleted":      false,
		"sender_id":       bson.M{"$ne": userID},
		"read_by.user_id": bson.M{"$ne": userID},
	})
	return n, errors.Wrap(err, "group unread count")
}

func (s *MongoGroupMessageStore) ListByGroup(ctx context.Context, groupID string, limit int64) ([]*model.GroupMessage, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.coll.Find(ctx, bson.M{"group_id": groupID, "is_deleted": false}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list group messages")
	}
	defer cur.Close(ctx)

	var out []*model.GroupMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode group messages")
	}
	return out, nil
}
