package model

import "time"

const GroupMessageTableName = "group_messages"

// ReadReceipt marks one member having read one group message.
type ReadReceipt struct {
	UserID string    `bson:"user_id" json:"userId"`
	ReadAt time.Time `bson:"read_at" json:"readAt"`
}

// GroupMessage is one message in a group conversation. The sender's own
// receipt is present in ReadBy from creation. ReplyTo, when set, references
// a message in the same group. Deletion is soft.
type GroupMessage struct {
	ID        string        `bson:"_id" json:"id"`
	GroupID   string        `bson:"group_id" json:"groupId"`
	SenderID  string        `bson:"sender_id" json:"senderId"`
	Content   string        `bson:"content,omitempty" json:"content,omitempty"`
	Media     *Media        `bson:"media,omitempty" json:"media,omitempty"`
	ReplyTo   string        `bson:"reply_to,omitempty" json:"replyTo,omitempty"`
	IsDeleted bool          `bson:"is_deleted" json:"isDeleted"`
	ReadBy    []ReadReceipt `bson:"read_by" json:"readBy"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
}

func (*GroupMessage) GetTableName() string { return GroupMessageTableName }

func (m *GroupMessage) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
