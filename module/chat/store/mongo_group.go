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

type MongoGroupStore struct {
	coll *mongo.Collection
}

func NewMongoGroupStore(db *mongo.Database) *MongoGroupStore {
	return &MongoGroupStore{coll: database.Collection(db, &model.Group{})}
}

func (s *MongoGroupStore) Insert(ctx context.Context, g *model.Group) error {
	_, err := s.coll.InsertOne(ctx, g)
	return errors.Wrap(err, "insert group")
}

func (s *MongoGroupStore) Get(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("group " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get group")
	}
	return &g, nil
}

// AddMembers uses $addToSet so re-adding an existing member is a no-op at
// the document level.
func (s *MongoGroupStore) AddMembers(ctx context.Context, id string, userIDs []string, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"members": bson.M{"$each": userIDs}},
		"$set":      bson.M{"updated_at": at},
	})
	return errors.Wrap(err, "add members")
}

func (s *MongoGroupStore) RemoveMember(ctx context.Context, id, userID string, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"members": userID, "admins": userID},
		"$set":  bson.M{"updated_at": at},
	})
	return errors.Wrap(err, "remove member")
}

func (s *MongoGroupStore) AddAdmin(ctx context.Context, id, userID string, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"admins": userID},
		"$set":      bson.M{"updated_at": at},
	})
	return errors.Wrap(err, "add admin")
}

func (s *MongoGroupStore) SetName(ctx context.Context, id, name string, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"name": name, "updated_at": at},
	})
	return errors.Wrap(err, "set group name")
}

func (s *MongoGroupStore) SetLastMessage(ctx context.Context, id string, lm *model.GroupLastMessage, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"last_message": lm, "updated_at": at},
	})
	return errors.Wrap(err, "set group last message")
}

func (s *MongoGroupStore) ListByMember(ctx context.Context, userID string) ([]*model.Group, error) {
	cur, err := s.coll.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return nil, errors.Wrap(err, "list groups by member")
	}
	defer cur.Close(ctx)

	var out []*model.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode groups")
	}
	return out, nil
}
