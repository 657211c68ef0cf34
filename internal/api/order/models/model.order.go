// Package ordermodels defines the Order document.
package ordermodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/statushistory"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

const RefCodePrefix = "ORD"

var Tracker = statushistory.New[Status]("status", "statusHistory")

// Order is confirmed work, either placed directly or converted from an approved quote.
type Order struct {
	ID                  primitive.ObjectID    `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerOrganizationID primitive.ObjectID    `json:"ownerOrganizationId" bson:"ownerOrganizationId" index:"single:1;compound:org_ref_unique"`
	RefCode             string                `json:"refCode" bson:"refCode" index:"compound:org_ref_unique"`
	Quote               primitive.ObjectID    `json:"quote,omitempty" bson:"quote,omitempty" index:"single:1"`
	Client              basemodels.Client     `json:"client" bson:"client"`
	LineItems           []basemodels.LineItem `json:"lineItems" bson:"lineItems"`
	Total               string                `json:"total" bson:"total"`

	Status        statushistory.Entry[Status]   `json:"status" bson:"status"`
	StatusHistory []statushistory.Entry[Status] `json:"statusHistory" bson:"statusHistory"`

	CreatedBy string `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"`
}
