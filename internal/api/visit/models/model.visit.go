// Package visitmodels defines the Visit document.
package visitmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/statushistory"
)

// Status of a visit.
type Status string

const (
	StatusNotCompleted Status = "NOT-COMPLETED"
	StatusCompleted    Status = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusNotCompleted || s == StatusCompleted
}

// Tracker stores the outgoing status in statusRevision.
var Tracker = statushistory.New[Status]("status", "statusRevision")

// Visit is one scheduled visit of a job. A visit with RRuleSet is a series; without one it
// is a single occurrence on StartDate. Dates are YYYY-MM-DD and times HH:MM, kept apart
// because listings filter on startDate and endDate independently.
type Visit struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId" index:"single:1"`
	Job                 primitive.ObjectID `json:"job" bson:"job" index:"single:1"`
	IsPrimary           bool               `json:"isPrimary" bson:"isPrimary"`
	// Series is the recurring visit this one replaces an occurrence of, nil for ad-hoc visits.
	Series *primitive.ObjectID `json:"series,omitempty" bson:"series,omitempty" index:"single:1"`

	Title        string `json:"title,omitempty" bson:"title,omitempty"`
	Instructions string `json:"instructions,omitempty" bson:"instructions,omitempty"`

	StartDate string `json:"startDate" bson:"startDate" index:"single:1"`
	EndDate   string `json:"endDate,omitempty" bson:"endDate,omitempty"`
	StartTime string `json:"startTime,omitempty" bson:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty" bson:"endTime,omitempty"`

	RRuleSet string   `json:"rruleSet,omitempty" bson:"rruleSet,omitempty"`
	ExcRRule []string `json:"excRrule" bson:"excRrule"`

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

// IsRecurring reports whether v carries a rule.
func (v Visit) IsRecurring() bool {
	return v.RRuleSet != ""
}

// TeamIDs returns the team as hex strings.
func (v Visit) TeamIDs() []string {
	out := make([]string, len(v.Team))
	for i, id := range v.Team {
		out[i] = id.Hex()
	}
	return out
}
