package appointmentsvc

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	appointmentdto "servicehub/internal/api/appointment/dto"
	appointmentmodels "servicehub/internal/api/appointment/models"
	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/statushistory"
	"servicehub/internal/utility"
)

// Appointments made from a booking that did not ask for a time or length.
const (
	defaultStartTime = "09:00"
	defaultDuration  = 60
)

type BookingDeps struct {
	Store        BookingStore
	Appointments AppointmentStore
	Transactor   database.Transactor
	Effects      basesvc.Effects
	Now          func() time.Time
}

type BookingService struct {
	store        BookingStore
	appointments AppointmentStore
	tx           database.Transactor
	effects      basesvc.Effects
	now          func() time.Time
}

func NewBookingService(d BookingDeps) *BookingService {
	s := &BookingService{store: d.Store, appointments: d.Appointments, tx: d.Transactor, effects: d.Effects, now: d.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *BookingService) Create(ctx context.Context, actor auth.Actor, org primitive.ObjectID, in appointmentdto.BookingCreateInput) (appointmentmodels.Booking, error) {
	day, err := utility.ParseDate(in.RequestedDate)
	if err != nil {
		return appointmentmodels.Booking{}, err
	}
	now := s.now()
	if day.Before(utility.CivilDate(now)) {
		return appointmentmodels.Booking{}, common.ValidationError("requestedDate is in the past", map[string]string{"requestedDate": in.RequestedDate})
	}
	return s.store.Insert(ctx, appointmentmodels.Booking{
		OwnerOrganizationID: org,
		Client:              in.Client.ToClient(),
		RequestedDate:       in.RequestedDate,
		RequestedTime:       in.RequestedTime,
		Duration:            in.Duration,
		Note:                in.Note,
		Status:              statushistory.Initial(appointmentmodels.BookingRequested, actor.ID, now),
		PrevStatus:          []statushistory.Entry[appointmentmodels.BookingStatus]{},
		CreatedBy:           actor.ID,
	})
}

func (s *BookingService) Get(ctx context.Context, org, id primitive.ObjectID) (appointmentmodels.Booking, error) {
	return s.store.Get(ctx, org, id)
}

func (s *BookingService) List(ctx context.Context, org primitive.ObjectID, q appointmentdto.BookingListQuery) (*basemodels.PaginateResult[appointmentmodels.Booking], error) {
	f := BookingFilter{Status: appointmentmodels.BookingStatus(q.Status)}
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.ValidationError("Unknown booking status", map[string]string{"status": q.Status})
	}
	f.Page, f.Limit = basesvc.ClampPage(q.Page, q.Limit)
	items, total, err := s.store.List(ctx, org, f)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, f.Page, f.Limit, total), nil
}

// UpdateStatus moves a booking to in.Status. The first acceptance schedules an appointment
// for the requested slot in the same transaction.
func (s *BookingService) UpdateStatus(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.StatusInput) (appointmentmodels.Booking, error) {
	status := appointmentmodels.BookingStatus(in.Status)
	if !status.Valid() {
		return appointmentmodels.Booking{}, common.ValidationError("Unknown booking status", map[string]string{"status": in.Status})
	}
	now := s.now()
	next := statushistory.Initial(status, actor.ID, now)
	next.Reason = in.Reason

	var b appointmentmodels.Booking
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, org, id)
		if err != nil {
			return err
		}
		if status != appointmentmodels.BookingAccepted || !current.Appointment.IsZero() {
			b, err = s.store.Transition(ctx, org, id, next)
			return err
		}
		a, err := s.appointments.Insert(ctx, fromBooking(current, actor.ID, now))
		if err != nil {
			return err
		}
		b, err = s.store.Accept(ctx, org, id, next, a.ID)
		return err
	})
	if err != nil {
		return appointmentmodels.Booking{}, err
	}

	var from string
	if n := len(b.PrevStatus); n > 0 {
		from = string(b.PrevStatus[n-1].Status)
	}
	s.effects.Announce(ctx, basesvc.Transition{
		Entity:         entityBooking,
		EntityID:       b.ID.Hex(),
		OrganizationID: org.Hex(),
		From:           from,
		To:             string(b.Status.Status),
		Reason:         b.Status.Reason,
		UpdatedBy:      actor.ID,
		UpdatedAt:      b.Status.UpdatedAt,
	})
	return b, nil
}

func fromBooking(b appointmentmodels.Booking, actorID string, now time.Time) appointmentmodels.Appointment {
	start, duration := b.RequestedTime, b.Duration
	if start == "" {
		start = defaultStartTime
	}
	if duration <= 0 {
		duration = defaultDuration
	}
	return newAppointment(b.OwnerOrganizationID, b.Client, b.RequestedDate, start, duration, b.Note, actorID, now)
}
