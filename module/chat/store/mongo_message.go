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

type MongoMessageStore struct {
	coll *mongo.Collection
}

func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{coll: database.Collection(db, &model.Message{})}
}

// pairFilter matches both directions of the unordered {a,b} pair.
func pairFilter(a, b string) bson.M {
	return bson.M{"$or": []bson.M{
		{"sender_id": a, "receiver_id": b},
		{"sender_id": b, "receiver_id": a},
	}}
}

func (s *MongoMessageStore) Insert(ctx context.Context, m *model.Message) error {
	_, err := s.coll.InsertOne(ctx, m)
	return errors.Wrap(err, "insert message")
}

func (s *MongoMessageStore) Get(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("message " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get message")
	}
	return &m, nil
}

func (s *MongoMessageStore) ListPair(ctx context.Context, a, b string, after time.Time) ([]*model.Message, error) {
	filter := pairFilter(a, b)
	if !after.IsZero() {
		filter["created_at"] = bson.M{"$gt": after}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "list pair messages")
	}
	defer cur.Close(ctx)

	var out []*model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode pair messages")
	}
	return out, nil
}

func (s *MongoMessageStore) SetSeen(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"seen": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("message " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "set seen")
	}
	return &m, nil
}

func (s *MongoMessageStore) SetAllSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"sender_id": senderID, "receiver_id": receiverID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "set all seen")
	}
	return res.ModifiedCount, nil
}

func (s *MongoMessageStore) Delete(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("message " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "delete message")
	}
	return &m, nil
}

func (s *MongoMessageStore) ClearLastFlags(ctx context.Context, a, b string) error {
	filter := pairFilter(a, b)
	filter["is_last_message"] = true
	_, err := s.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_last_message": false}})
	return errors.Wrap(err, "clear last flags")
}

func (s *MongoMessageStore) SetLastFlag(ctx context.Context, id string) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"is_last_message": true}})
	return errors.Wrap(err, "set last flag")
}

func (s *MongoMessageStore) LastMessages(ctx context.Context, userID string) ([]*model.Message, error) {
	filter := bson.M{
		"is_last_message": true,
		"$or": []bson.M{
			{"sender_id": userID},
			{"receiver_id": userID},
		},
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, errors.Wrap(err, "last messages")
	}
	defer cur.Close(ctx)

	var out []*model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode last messages")
	}
	return out, nil
}
