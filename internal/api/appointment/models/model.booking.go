package appointmentmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/statushistory"
)

type BookingStatus string

const (
	BookingRequested BookingStatus = "REQUESTED"
	BookingAccepted  BookingStatus = "ACCEPTED"
	BookingDeclined  BookingStatus = "DECLINED"
)

func (s BookingStatus) Valid() bool {
	return s == BookingRequested || s == BookingAccepted || s == BookingDeclined
}

// BookingTracker keeps a booking's earlier statuses in prevStatus.
var BookingTracker = statushistory.New[BookingStatus]("status", "prevStatus")

// Booking is a client's request for an appointment. Accepting it creates the appointment.
type Booking struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId" index:"single:1"`
	Appointment         primitive.ObjectID `json:"appointment,omitempty" bson:"appointment,omitempty"`
	Client              basemodels.Client  `json:"client" bson:"client"`
	RequestedDate       string             `json:"requestedDate" bson:"requestedDate" index:"single:1"`
	RequestedTime       string             `json:"requestedTime,omitempty" bson:"requestedTime,omitempty"`
	Duration            int                `json:"duration,omitempty" bson:"duration,omitempty"`
	Note                string             `json:"note,omitempty" bson:"note,omitempty"`

	Status     statushistory.Entry[BookingStatus]   `json:"status" bson:"status"`
	PrevStatus []statushistory.Entry[BookingStatus] `json:"prevStatus" bson:"prevStatus"`

	CreatedBy string `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"`
}
