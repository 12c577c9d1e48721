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
)

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: database.Collection(db, &model.User{})}
}

func (s *MongoUserStore) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("user " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

func (s *MongoUserStore) MarkOnline(ctx context.Context, userIDs []string, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$set": bson.M{"is_online": true, "last_active": at}},
	)
	return errors.Wrap(err, "mark online")
}

func (s *MongoUserStore) MarkOffline(ctx context.Context, userIDs []string, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$set": bson.M{"is_online": false, "last_active": at}},
	)
	return errors.Wrap(err, "mark offline")
}

func (s *MongoUserStore) OnlineUsers(ctx context.Context) ([]*model.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{"is_online": true})
	if err != nil {
		return nil, errors.Wrap(err, "online users")
	}
	defer cur.Close(ctx)

	var out []*model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode online users")
	}
	return out, nil
}
