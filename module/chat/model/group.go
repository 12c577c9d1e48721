package model

import "time"

const GroupTableName = "groups"

const DefaultMaxMembers = 256

// GroupLastMessage is the snapshot kept on the group document so the
// conversation list renders without a join against group messages.
type GroupLastMessage struct {
	MessageID string    `bson:"message_id" json:"messageId"`
	SenderID  string    `bson:"sender_id" json:"senderId"`
	Preview   string    `bson:"preview" json:"preview"`
	SentAt    time.Time `bson:"sent_at" json:"sentAt"`
}

// Group metadata. Invariants, maintained by the service layer:
// CreatedBy is always a member and an admin and can never be removed;
// Admins is a subset of Members; len(Members) <= MaxMembers.
type Group struct {
	ID          string            `bson:"_id" json:"id"`
	Name        string            `bson:"name" json:"name"`
	Members     []string          `bson:"members" json:"members"`
	Admins      []string          `bson:"admins" json:"admins"`
	CreatedBy   string            `bson:"created_by" json:"createdBy"`
	MaxMembers  int               `bson:"max_members" json:"maxMembers"`
	LastMessage *GroupLastMessage `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `bson:"updated_at" json:"updatedAt"`
}

func (*Group) GetTableName() string { return GroupTableName }

func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

func (g *Group) IsAdmin(userID string) bool {
	for _, a := range g.Admins {
		if a == userID {
			return true
		}
	}
	return false
}
