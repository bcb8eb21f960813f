// internal/domain/models/collection.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is a named, optionally schema-constrained grouping of entities
// inside one organization. (OrganizationID, Name) is unique.
type Collection struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name                string             `bson:"name" json:"name"`
	CollectionID        string             `bson:"collectionId" json:"collectionId"`
	Creator             string             `bson:"creator" json:"creator"`
	OrganizationID      string             `bson:"organizationId" json:"organizationId"`
	Organization        string             `bson:"organization" json:"organization"`
	DateTimeLastUpdated int64              `bson:"dateTimeLastUpdated" json:"dateTimeLastUpdated"`
	CollectionSchema    Schema             `bson:"collectionSchema,omitempty" json:"collectionSchema,omitempty"`
	Description         Document           `bson:"description,omitempty" json:"description,omitempty"`

	NumEntities int64 `bson:"-" json:"numEntities"`
}

// HasSchema reports whether entities of this collection must validate
// against CollectionSchema.
func (c Collection) HasSchema() bool {
	return !c.CollectionSchema.IsZero()
}
