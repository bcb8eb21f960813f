// internal/domain/models/entity.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entity is a free-form data record owned by a collection. The owning
// collection is referenced by CollectionID and OrganizationID, enforced by
// query filters only.
type Entity struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	EntityID            string             `bson:"entityId" json:"entityId"`
	Collection          string             `bson:"collection" json:"collection"`
	CollectionID        string             `bson:"collectionId" json:"collectionId"`
	Organization        string             `bson:"organization" json:"organization"`
	OrganizationID      string             `bson:"organizationId" json:"organizationId"`
	CreatedBy           string             `bson:"createdBy" json:"createdBy"`
	DateTimeLastUpdated int64              `bson:"dateTimeLastUpdated" json:"dateTimeLastUpdated"`
	Data                Document           `bson:"data" json:"data"`
}
