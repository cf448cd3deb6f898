package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message kinds. A text message carries Content; a meme message carries MemeID.
const (
	MessageKindText = "text"
	MessageKindMeme = "meme"
)

// Message is one entry in a conversation's ordered message array. Messages are
// immutable once appended; CreatedAt is assigned server-side right before the
// append, so array position is the ordering authority, not the timestamp.
type Message struct {
	MessageID string              `json:"messageId" bson:"message_id"`
	Sender    string              `json:"senderId" bson:"sender"`
	Kind      string              `json:"type" bson:"kind"`
	Content   string              `json:"text,omitempty" bson:"content,omitempty"`
	MemeID    *primitive.ObjectID `json:"memeId,omitempty" bson:"meme_id,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"created_at"`
}

// Conversation represents the single chat document for an unordered pair of
// participants. PairKey is the normalized pair identity; at most one document
// exists per key (unique index), which is what makes the first-message upsert
// race-free.
type Conversation struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PairKey        string             `json:"-" bson:"pair_key"`
	ParticipantIDs []string           `json:"participantIds" bson:"participant_ids"`
	Messages       []Message          `json:"messages" bson:"messages"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
}

// LastMessage returns the most recent message, or nil for an empty conversation.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Counterpart returns the participant that is not the given identity.
func (c *Conversation) Counterpart(identity string) string {
	for _, id := range c.ParticipantIDs {
		if id != identity {
			return id
		}
	}
	return ""
}

// PairKey normalizes an unordered participant pair into the conversation key,
// so {A,B} and {B,A} resolve to the same document.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// MessageView is a history entry annotated for the query API: the raw stored
// message plus the sender's display name and, for meme messages, the resolved
// meme payload.
type MessageView struct {
	MessageID string    `json:"messageId"`
	SenderID  string    `json:"senderId"`
	Username  string    `json:"username"`
	Kind      string    `json:"type"`
	Text      string    `json:"text,omitempty"`
	Meme      *Meme     `json:"meme,omitempty"`
	CreatedAt time.Time `json:"timeStamp"`
}

// ConversationSummary is one row of the recent-conversations screen.
type ConversationSummary struct {
	UserID         string       `json:"userId"`
	Username       string       `json:"username"`
	ProfilePicture string       `json:"profilePicture"`
	LastMessage    *MessageView `json:"lastMessage,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
