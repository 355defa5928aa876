package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the SchoolConnect system.
// Friends holds confirmed friendships; FriendRequests holds the ids of users
// whose requests are still pending with this user as the receiver.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName      string               `bson:"first_name" json:"first_name"`
	LastName       string               `bson:"last_name" json:"last_name"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Role           string               `bson:"role" json:"role"` // "student", "teacher", "admin"
	Course         string               `bson:"course" json:"course"`
	Friends        []primitive.ObjectID `bson:"friends,omitempty" json:"friends,omitempty"`
	FriendRequests []primitive.ObjectID `bson:"friend_requests,omitempty" json:"friend_requests,omitempty"`
	IsOnline       bool                 `bson:"is_online" json:"is_online"`
	LastSeen       time.Time            `bson:"last_seen" json:"last_seen"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns the name shown next to messages and conversations.
func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasFriend reports whether id appears in the user's confirmed friends.
func (u *User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// HasPendingRequestFrom reports whether id has a pending request to this user.
func (u *User) HasPendingRequestFrom(id primitive.ObjectID) bool {
	for _, r := range u.FriendRequests {
		if r == id {
			return true
		}
	}
	return false
}

// PublicUser is the identity snapshot exposed to other users.
type PublicUser struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Email     string             `json:"email"`
	Course    string             `json:"course"`
	Role      string             `json:"role"`
	IsOnline  bool               `json:"is_online"`
	LastSeen  time.Time          `json:"last_seen"`
}

// NewPublicUser builds the public snapshot of a user.
func NewPublicUser(u *User) PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Course:    u.Course,
		Role:      u.Role,
		IsOnline:  u.IsOnline,
		LastSeen:  u.LastSeen,
	}
}

// ContactableUser is a directory entry in the "all users" view, annotated
// with the viewer's relationship to it.
type ContactableUser struct {
	PublicUser
	IsFriend bool `json:"is_friend"`
}

// Presence is the last self-reported online state of a user. LastSeen tracks
// last activity, not last time online.
type Presence struct {
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}
