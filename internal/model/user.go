package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User presence states, owned by the connection registry.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// User represents a user document in MongoDB
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	AvatarURL    string             `json:"avatarUrl" bson:"avatar_url"`
	Status       string             `json:"status" bson:"status"`
	LastSeen     *time.Time         `json:"lastSeen,omitempty" bson:"last_seen,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    *time.Time         `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// PublicUser is the wire shape of a user shared with other participants.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Status    string `json:"status"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		Status:    u.Status,
	}
}
