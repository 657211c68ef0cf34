// Package quotemodels defines the Quote document.
package quotemodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/statushistory"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusConverted Status = "CONVERTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusConverted:
		return true
	}
	return false
}

const RefCodePrefix = "QT"

// Tracker stores the outgoing status in statusHistory.
var Tracker = statushistory.New[Status]("status", "statusHistory")

// Quote is a priced offer to a client, optionally for an existing job.
// Total is the decimal sum of the line items, fixed when the quote is created.
type Quote struct {
	ID                  primitive.ObjectID    `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerOrganizationID primitive.ObjectID    `json:"ownerOrganizationId" bson:"ownerOrganizationId" index:"single:1;compound:org_ref_unique"`
	RefCode             string                `json:"refCode" bson:"refCode" index:"compound:org_ref_unique"`
	Job                 primitive.ObjectID    `json:"job,omitempty" bson:"job,omitempty" index:"single:1"`
	Title               string                `json:"title" bson:"title"`
	Client              basemodels.Client     `json:"client" bson:"client"`
	LineItems           []basemodels.LineItem `json:"lineItems" bson:"lineItems"`
	Total               string                `json:"total" bson:"total"`
	ValidUntil          string                `json:"validUntil,omitempty" bson:"validUntil,omitempty"`

	Status        statushistory.Entry[Status]   `json:"status" bson:"status"`
	StatusHistory []statushistory.Entry[Status] `json:"statusHistory" bson:"statusHistory"`

	CreatedBy string `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"`
}
