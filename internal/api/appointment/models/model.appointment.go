// Package appointmentmodels defines the Appointment and Booking documents.
package appointmentmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/statushistory"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO-SHOW"
	AppointmentDone      AppointmentStatus = "DONE"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCancelled, AppointmentNoShow, AppointmentDone:
		return true
	}
	return false
}

var AppointmentTracker = statushistory.New[AppointmentStatus]("status", "statusHistory")

// Appointment is a client meeting on Date at StartTime, lasting Duration minutes.
type Appointment struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId" index:"single:1;compound:org_date"`
	Client              basemodels.Client  `json:"client" bson:"client"`
	Date                string             `json:"date" bson:"date" index:"compound:org_date"`
	StartTime           string             `json:"startTime" bson:"startTime"`
	Duration            int                `json:"duration" bson:"duration"`
	Note                string             `json:"note,omitempty" bson:"note,omitempty"`

	Status        statushistory.Entry[AppointmentStatus]   `json:"status" bson:"status"`
	StatusHistory []statushistory.Entry[AppointmentStatus] `json:"statusHistory" bson:"statusHistory"`

	CreatedBy string `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"`
}
