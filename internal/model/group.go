package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a chat group document in MongoDB. Membership is
// mutated by the REST layer only; the hub consumes it to authorize and
// to compute broadcast targets.
type Group struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	CreatedBy   string             `json:"createdBy" bson:"created_by"`
	Members     []string           `json:"members" bson:"members"`
	Admins      []string           `json:"admins" bson:"admins"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// NewGroup builds a group with the creator forced into both the member
// and admin sets.
func NewGroup(name, description, creatorID string) *Group {
	now := time.Now().UTC()
	return &Group{
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
		Members:     []string{creatorID},
		Admins:      []string{creatorID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (g *Group) IsMember(userID string) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

func (g *Group) IsAdmin(userID string) bool {
	for _, id := range g.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// AddMember appends the user to the member set; already-present is a no-op.
func (g *Group) AddMember(userID string) bool {
	if g.IsMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

// RemoveMember drops the user from both member and admin sets.
func (g *Group) RemoveMember(userID string) bool {
	removed := false
	for i, id := range g.Members {
		if id == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			removed = true
			break
		}
	}
	for i, id := range g.Admins {
		if id == userID {
			g.Admins = append(g.Admins[:i], g.Admins[i+1:]...)
			break
		}
	}
	return removed
}
