package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meme represents an ingested meme in MongoDB. ImageURL is the natural key the
// ingest upsert deduplicates on.
type Meme struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title    string             `json:"title" bson:"title"`
	ImageURL string             `json:"imageUrl" bson:"image_url"`
	Spoiler  bool               `json:"spoiler" bson:"spoiler"`
	NSFW     bool               `json:"nsfw" bson:"nsfw"`
	Likes    []string           `json:"like" bson:"likes"`
	Comments []Comment          `json:"comments" bson:"comments"`
}

// Comment is a single comment on a meme.
type Comment struct {
	User      string    `json:"user" bson:"user"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// MemeFeedItem is a meme projected for a particular viewer.
type MemeFeedItem struct {
	Meme
	LikeCount int  `json:"likes"`
	Liked     bool `json:"liked"`
}

// ViewFor builds the per-viewer projection of a meme.
func (m Meme) ViewFor(viewerID string) MemeFeedItem {
	liked := false
	for _, uid := range m.Likes {
		if uid == viewerID {
			liked = true
			break
		}
	}
	return MemeFeedItem{Meme: m, LikeCount: len(m.Likes), Liked: liked}
}
