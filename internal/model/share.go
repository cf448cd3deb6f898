package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Share records a meme sent from one user to another outside a conversation
// (the "share to inbox" flow, distinct from a meme message in a chat).
type Share struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Sender   string             `json:"senderId" bson:"sender"`
	Receiver string             `json:"receiverId" bson:"receiver"`
	MemeID   primitive.ObjectID `json:"memeId" bson:"meme_id"`
	SentAt   time.Time          `json:"sentAt" bson:"sent_at"`
}

// ShareView is a share resolved for display: the meme payload plus the sender's
// display metadata.
type ShareView struct {
	ID     primitive.ObjectID `json:"id"`
	Sender UserRef            `json:"sender"`
	Meme   Meme               `json:"meme"`
	SentAt time.Time          `json:"sentAt"`
}
