// internal/domain/models/organization.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is the tenant root. Every collection and entity is scoped to
// exactly one organization by OrganizationID.
type Organization struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrganizationID string             `bson:"organizationId" json:"organizationId"`
	Organization   string             `bson:"organization" json:"organization"` // normalized, globally unique
	FName          string             `bson:"fname" json:"fname"`
	LName          string             `bson:"lname" json:"lname"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"password,omitempty" json:"-"` // bcrypt
	APIKey         string             `bson:"apiKey" json:"-"`             // ciphertext
	KeyExpiration  int64              `bson:"keyExpiration" json:"keyExpiration"`
	Verified       bool               `bson:"verified" json:"verified"`
	LoggedIn       bool               `bson:"loggedIn" json:"loggedIn"`

	// Live counters, computed on read.
	Collections int64 `bson:"-" json:"collections"`
	Entities    int64 `bson:"-" json:"entities"`
}
