package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a directed message between two users. Messages are append-only:
// once stored, only the read flag ever changes.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`
	Content    string             `bson:"content" json:"content"`
	IsRead     bool               `bson:"is_read" json:"is_read"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`

	// Display names resolved at read time, never persisted.
	SenderName   string `bson:"-" json:"sender_name,omitempty"`
	ReceiverName string `bson:"-" json:"receiver_name,omitempty"`
}

// Conversation is a derived per-counterpart summary: the counterpart's
// identity plus the most recent message exchanged with them. It is recomputed
// on every read and never stored.
type Conversation struct {
	User        PublicUser `json:"user"`
	LastMessage Message    `json:"last_message"`
}
