package model

import "time"

const MessageTableName = "messages"

// Media is the shape the object-storage boundary hands back: a plain URL
// for images, plus bytes/duration/dimensions for video and audio. The core
// trusts it as-is.
type Media struct {
	URL      string  `bson:"url" json:"url"`
	Kind     string  `bson:"kind" json:"kind"` // image/video/audio/file
	Filename string  `bson:"filename" json:"filename"`
	Size     int64   `bson:"size,omitempty" json:"size,omitempty"`
	Duration float64 `bson:"duration,omitempty" json:"duration,omitempty"`
	Width    int     `bson:"width,omitempty" json:"width,omitempty"`
	Height   int     `bson:"height,omitempty" json:"height,omitempty"`
}

// Message is one direct (1:1) message. Body and Media are never both
// empty. IsLastMessage is the denormalized last-message flag: true on at
// most one message per unordered sender/receiver pair, recomputed on every
// send and cleared by a chat clear.
type Message struct {
	ID            string    `bson:"_id" json:"id"`
	SenderID      string    `bson:"sender_id" json:"senderId"`
	ReceiverID    string    `bson:"receiver_id" json:"receiverId"`
	Body          string    `bson:"body,omitempty" json:"body,omitempty"`
	Media         *Media    `bson:"media,omitempty" json:"media,omitempty"`
	Seen          bool      `bson:"seen" json:"seen"`
	IsLastMessage bool      `bson:"is_last_message" json:"isLastMessage"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}

func (*Message) GetTableName() string { return MessageTableName }
