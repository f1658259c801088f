package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold. Admin unlocks catalog mutations and stats.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the identity record stored in the users collection.
// PasswordHash is empty for accounts created through an OAuth provider;
// such accounts must carry at least one provider id instead.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`

	// Pending email-verification state. Cleared once consumed.
	VerificationToken       string    `bson:"verificationToken,omitempty" json:"-"`
	VerificationTokenExpiry time.Time `bson:"verificationTokenExpiry,omitempty" json:"-"`

	// Pending password-reset state. Cleared once consumed.
	ResetToken       string    `bson:"resetToken,omitempty" json:"-"`
	ResetTokenExpiry time.Time `bson:"resetTokenExpiry,omitempty" json:"-"`

	// External identity linkage, one field per supported provider.
	GoogleID string `bson:"googleId,omitempty" json:"googleId,omitempty"`
	GithubID string `bson:"githubId,omitempty" json:"githubId,omitempty"`

	LastLogin time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the response shape handlers return for a user.
type PublicUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID.Hex(),
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}
