package model

import "time"

const ClearedChatTableName = "cleared_chats"

// ClearedChat is the per-viewer visibility watermark over a direct
// conversation. At most one document per ordered (user, chat-with) pair;
// clearing again just bumps the timestamp. Messages at or before ClearedAt
// are hidden from UserID only — the counterparty still sees full history.
type ClearedChat struct {
	UserID         string    `bson:"user_id" json:"userId"`
	ChatWithUserID string    `bson:"chat_with_user_id" json:"chatWithUserId"`
	ClearedAt      time.Time `bson:"cleared_at" json:"clearedAt"`
}

func (*ClearedChat) GetTableName() string { return ClearedChatTableName }
