package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in MongoDB. Identity creation lives with the
// external auth provider; ExternalID is that provider's subject id and is the
// only identifier the rest of the system references.
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ExternalID     string             `json:"userId" bson:"external_id"`
	Username       string             `json:"username" bson:"username"`
	Email          string             `json:"email" bson:"email"`
	Bio            string             `json:"bio" bson:"bio"`
	ProfilePicture string             `json:"profilePicture" bson:"profile_picture"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      *time.Time         `json:"updatedAt" bson:"updated_at"`
}

// UserRef is the slim projection attached to message views and shares.
type UserRef struct {
	ExternalID     string `json:"userId" bson:"external_id"`
	Username       string `json:"username" bson:"username"`
	ProfilePicture string `json:"profilePicture" bson:"profile_picture"`
}
