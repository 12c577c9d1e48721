package store

import (
	"context"
	"time"

	"Linkup/module/chat/model"
)

// The conversation store owns Message/ClearedChat/Group/GroupMessage
// lifecycles; nothing else writes these documents. Services depend on
// these interfaces so tests run against in-memory fakes.

type MessageStore interface {
	Insert(ctx context.Context, m *model.Message) error
	Get(ctx context.Context, id string) (*model.Message, error)
	// ListPair returns messages between the unordered {a,b} pair ascending
	// by creation time, restricted to created_at strictly after `after`
	// when it is non-zero.
	ListPair(ctx context.Context, a, b string, after time.Time) ([]*model.Message, error)
	SetSeen(ctx context.Context, id string) (*model.Message, error)
	SetAllSeen(ctx context.Context, senderID, receiverID string) (int64, error)
	Delete(ctx context.Context, id string) (*model.Message, error)
	// ClearLastFlags unsets is_last_message on every message of the pair;
	// SetLastFlag sets it on one message. The two are separate store calls
	// on purpose and are not transactional.
	ClearLastFlags(ctx context.Context, a, b string) error
	SetLastFlag(ctx context.Context, id string) error
	LastMessages(ctx context.Context, userID string) ([]*model.Message, error)
}

type ClearedChatStore interface {
	// Upsert creates or bumps the watermark for the ordered (user, other)
	// pair. Never appends a second document.
	Upsert(ctx context.Context, userID, otherID string, at time.Time) error
	// Get returns nil, nil when the pair has no watermark.
	Get(ctx context.Context, userID, otherID string) (*model.ClearedChat, error)
}

type GroupStore interface {
	Insert(ctx context.Context, g *model.Group) error
	Get(ctx context.Context, id string) (*model.Group, error)
	AddMembers(ctx context.Context, id string, userIDs []string, at time.Time) error
	RemoveMember(ctx context.Context, id, userID string, at time.Time) error
	AddAdmin(ctx context.Context, id, userID string, at time.Time) error
	SetName(ctx context.Context, id, name string, at time.Time) error
	SetLastMessage(ctx context.Context, id string, lm *model.GroupLastMessage, at time.Time) error
	ListByMember(ctx context.Context, userID string) ([]*model.Group, error)
}

type GroupMessageStore interface {
	Insert(ctx context.Context, m *model.GroupMessage) error
	Get(ctx context.Context, id string) (*model.GroupMessage, error)
	// MarkRead appends a receipt unless one already exists for userID.
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
	SoftDelete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context, groupID, userID string) (int64, error)
	ListByGroup(ctx context.Context, groupID string, limit int64) ([]*model.GroupMessage, error)
}

type UserStore interface {
	Get(ctx context.Context, id string) (*model.User, error)
	MarkOnline(ctx context.Context, userIDs []string, at time.Time) error
	MarkOffline(ctx context.Context, userIDs []string, at time.Time) error
	// OnlineUsers returns every user whose persisted is_online flag is set.
	OnlineUsers(ctx context.Context) ([]*model.User, error)
}
