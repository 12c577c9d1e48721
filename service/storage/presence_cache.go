package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// PresenceCache mirrors the in-memory online set into redis keys with a
// TTL, so "is user X online" can be answered without touching the registry
// or the user collection. It is a lagging projection: the registry stays
// the source of truth and the reconciliation loop refreshes the keys on
// every sweep. Keys that stop being refreshed expire on their own.
type PresenceCache struct {
	rdb *redis.Client
}

func NewPresenceCache(rdb *redis.Client) *PresenceCache {
	return &PresenceCache{rdb: rdb}
}

// presence key: linkup:presence:<user>
func presenceKey(user string) string { return "linkup:presence:" + user }

// Refresh re-asserts the online keys for the given users with the given TTL.
func (p *PresenceCache) Refresh(ctx context.Context, users []string, ttl time.Duration) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	pipe := p.rdb.Pipeline()
	for _, u := range users {
		pipe.Set(ctx, presenceKey(u), "1", ttl)
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "presence cache refresh")
}

// Drop deletes the key immediately on a clean disconnect.
func (p *PresenceCache) Drop(ctx context.Context, user string) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return errors.Wrap(p.rdb.Del(ctx, presenceKey(user)).Err(), "presence cache drop")
}

// Lookup reports whether the key is present.
func (p *PresenceCache) Lookup(ctx context.Context, user string) (bool, error) {
	if p == nil || p.rdb == nil {
		return false, nil
	}
	_, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "presence cache lookup")
	}
	return true, nil
}
