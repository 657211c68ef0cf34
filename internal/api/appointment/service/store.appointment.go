package appointmentsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	appointmentmodels "servicehub/internal/api/appointment/models"
	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/common"
	"servicehub/internal/global"
	"servicehub/internal/statushistory"
)

const (
	entityAppointment = "appointment"
	entityBooking     = "booking"
)

// AppointmentFilter narrows a listing. From and To bound the date, inclusive.
type AppointmentFilter struct {
	Status appointmentmodels.AppointmentStatus
	From   string
	To     string
	Page   int64
	Limit  int64
}

type AppointmentStore interface {
	Insert(ctx context.Context, a appointmentmodels.Appointment) (appointmentmodels.Appointment, error)
	Get(ctx context.Context, org, id primitive.ObjectID) (appointmentmodels.Appointment, error)
	List(ctx context.Context, org primitive.ObjectID, f AppointmentFilter) ([]appointmentmodels.Appointment, int64, error)
	Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[appointmentmodels.AppointmentStatus]) (appointmentmodels.Appointment, error)
}

type BookingFilter struct {
	Status appointmentmodels.BookingStatus
	Page   int64
	Limit  int64
}

type BookingStore interface {
	Insert(ctx context.Context, b appointmentmodels.Booking) (appointmentmodels.Booking, error)
	Get(ctx context.Context, org, id primitive.ObjectID) (appointmentmodels.Booking, error)
	List(ctx context.Context, org primitive.ObjectID, f BookingFilter) ([]appointmentmodels.Booking, int64, error)
	Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[appointmentmodels.BookingStatus]) (appointmentmodels.Booking, error)
	// Accept transitions to next and links the appointment in one write.
	Accept(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[appointmentmodels.BookingStatus], appointment primitive.ObjectID) (appointmentmodels.Booking, error)
}

type MongoAppointmentStore struct {
	*basesvc.TrackedStore[appointmentmodels.Appointment, appointmentmodels.AppointmentStatus]
}

func NewMongoAppointmentStore() (*MongoAppointmentStore, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Appointments)
	if !exist {
		return nil, fmt.Errorf("collection %s not registered: %w", global.MongoDB_ColNames.Appointments, common.ErrNotFound)
	}
	return &MongoAppointmentStore{
		TrackedStore: basesvc.NewTrackedStore[appointmentmodels.Appointment](coll, entityAppointment, appointmentmodels.AppointmentTracker),
	}, nil
}

func (s *MongoAppointmentStore) List(ctx context.Context, org primitive.ObjectID, f AppointmentFilter) ([]appointmentmodels.Appointment, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status.status"] = f.Status
	}
	date := bson.M{}
	if f.From != "" {
		date["$gte"] = f.From
	}
	if f.To != "" {
		date["$lte"] = f.To
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	return s.Page(ctx, org, filter, f.Page, f.Limit)
}

type MongoBookingStore struct {
	*basesvc.TrackedStore[appointmentmodels.Booking, appointmentmodels.BookingStatus]
}

func NewMongoBookingStore() (*MongoBookingStore, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Bookings)
	if !exist {
		return nil, fmt.Errorf("collection %s not registered: %w", global.MongoDB_ColNames.Bookings, common.ErrNotFound)
	}
	return &MongoBookingStore{
		TrackedStore: basesvc.NewTrackedStore[appointmentmodels.Booking](coll, entityBooking, appointmentmodels.BookingTracker),
	}, nil
}

func (s *MongoBookingStore) List(ctx context.Context, org primitive.ObjectID, f BookingFilter) ([]appointmentmodels.Booking, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status.status"] = f.Status
	}
	return s.Page(ctx, org, filter, f.Page, f.Limit)
}

func (s *MongoBookingStore) Accept(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[appointmentmodels.BookingStatus], appointment primitive.ObjectID) (appointmentmodels.Booking, error) {
	return s.TransitionWith(ctx, org, id, next, bson.M{"appointment": appointment})
}
