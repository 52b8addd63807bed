package models

import (
	"time"
)

// User is a back-office staff account. Historically some agents were created
// here rather than in the agents collection, which is why identity resolution
// consults both stores.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"` // Store hash, not plaintext
	IsAdmin      bool      `bson:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
	Deleted      bool      `bson:"deleted" json:"-"` // Soft delete flag
}
