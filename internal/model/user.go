package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the only durable identity record. Password holds a bcrypt hash and
// may be empty when GoogleID is set.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password,omitempty" json:"-"`
	GoogleID       string             `bson:"googleId,omitempty" json:"googleId,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	IsVerified     bool               `bson:"isVerified" json:"isVerified"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasAuthMethod reports whether the user can authenticate with at least one
// method.
func (u *User) HasAuthMethod() bool {
	return u.Password != "" || u.GoogleID != ""
}

// GoogleProfile is the subset of the Google identity used to resolve a user.
type GoogleProfile struct {
	ProviderID    string
	Email         string
	EmailVerified bool
	DisplayName   string
	Photo         string
}
