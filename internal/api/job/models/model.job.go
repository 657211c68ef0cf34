// Package jobmodels defines the Job document.
package jobmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/statushistory"
)

// Status of a job.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusOnHold    Status = "ON-HOLD"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Type tells one-off jobs from jobs with a recurring primary visit.
type Type string

const (
	TypeOneOff    Type = "ONE_OFF"
	TypeRecurring Type = "RECURRING"
)

// RefCodePrefix starts every job reference code.
const RefCodePrefix = "JOB"

// Tracker stores the outgoing status in statusRevision.
var Tracker = statushistory.New[Status]("status", "statusRevision")

// Job is a unit of work for a client. A recurring job owns a primary visit whose rule is
// the job's schedule; StartDate mirrors that visit.
type Job struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId" index:"single:1;compound:org_ref_unique"`
	RefCode             string             `json:"refCode" bson:"refCode" index:"compound:org_ref_unique"`
	Title               string             `json:"title" bson:"title"`
	Instructions        string             `json:"instructions,omitempty" bson:"instructions,omitempty"`
	Type                Type               `json:"type" bson:"type"`
	Client              basemodels.Client  `json:"client" bson:"client"`

	PrimaryVisit primitive.ObjectID `json:"primaryVisit,omitempty" bson:"primaryVisit,omitempty" index:"single:1"`
	StartDate    string             `json:"startDate,omitempty" bson:"startDate,omitempty"`

	Team      []primitive.ObjectID  `json:"team" bson:"team"`
	LineItems []basemodels.LineItem `json:"lineItems" bson:"lineItems"`

	Status         statushistory.Entry[Status]   `json:"status" bson:"status"`
	StatusRevision []statushistory.Entry[Status] `json:"statusRevision" bson:"statusRevision"`

	IsCompleted bool                   `json:"isCompleted" bson:"isCompleted"`
	Completion  *basemodels.Completion `json:"completion,omitempty" bson:"completion,omitempty"`
	Feedback    *basemodels.Feedback   `json:"feedback,omitempty" bson:"feedback,omitempty"`

	IsDeleted bool   `json:"-" bson:"isDeleted"`
	CreatedBy string `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"`
}

// TeamIDs returns the team as hex strings.
func (j Job) TeamIDs() []string {
	out := make([]string, len(j.Team))
	for i, id := range j.Team {
		out[i] = id.Hex()
	}
	return out
}
