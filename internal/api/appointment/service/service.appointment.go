// Package appointmentsvc implements appointments and the bookings that request them.
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
	"servicehub/internal/statushistory"
	"servicehub/internal/utility"
)

type AppointmentService struct {
	store   AppointmentStore
	effects basesvc.Effects
	now     func() time.Time
}

func NewAppointmentService(store AppointmentStore, effects basesvc.Effects, now func() time.Time) *AppointmentService {
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{store: store, effects: effects, now: now}
}

func (s *AppointmentService) Create(ctx context.Context, actor auth.Actor, org primitive.ObjectID, in appointmentdto.AppointmentCreateInput) (appointmentmodels.Appointment, error) {
	if _, err := utility.ParseDate(in.Date); err != nil {
		return appointmentmodels.Appointment{}, err
	}
	if in.Duration <= 0 {
		return appointmentmodels.Appointment{}, common.ValidationError("duration must be positive", map[string]int{"duration": in.Duration})
	}
	return s.store.Insert(ctx, newAppointment(org, in.Client.ToClient(), in.Date, in.StartTime, in.Duration, in.Note, actor.ID, s.now()))
}

func newAppointment(org primitive.ObjectID, client basemodels.Client, date, startTime string, duration int, note, actorID string, now time.Time) appointmentmodels.Appointment {
	return appointmentmodels.Appointment{
		OwnerOrganizationID: org,
		Client:              client,
		Date:                date,
		StartTime:           startTime,
		Duration:            duration,
		Note:                note,
		Status:              statushistory.Initial(appointmentmodels.AppointmentScheduled, actorID, now),
		StatusHistory:       []statushistory.Entry[appointmentmodels.AppointmentStatus]{},
		CreatedBy:           actorID,
	}
}

func (s *AppointmentService) Get(ctx context.Context, org, id primitive.ObjectID) (appointmentmodels.Appointment, error) {
	return s.store.Get(ctx, org, id)
}

func (s *AppointmentService) List(ctx context.Context, org primitive.ObjectID, q appointmentdto.AppointmentListQuery) (*basemodels.PaginateResult[appointmentmodels.Appointment], error) {
	f := AppointmentFilter{Status: appointmentmodels.AppointmentStatus(q.Status), From: q.From, To: q.To}
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.ValidationError("Unknown appointment status", map[string]string{"status": q.Status})
	}
	if f.From != "" && f.To != "" && f.To < f.From {
		return nil, common.ValidationError("to must not be before from", map[string]string{"from": f.From, "to": f.To})
	}
	f.Page, f.Limit = basesvc.ClampPage(q.Page, q.Limit)
	items, total, err := s.store.List(ctx, org, f)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, f.Page, f.Limit, total), nil
}

func (s *AppointmentService) UpdateStatus(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.StatusInput) (appointmentmodels.Appointment, error) {
	status := appointmentmodels.AppointmentStatus(in.Status)
	if !status.Valid() {
		return appointmentmodels.Appointment{}, common.ValidationError("Unknown appointment status", map[string]string{"status": in.Status})
	}
	next := statushistory.Initial(status, actor.ID, s.now())
	next.Reason = in.Reason

	a, err := s.store.Transition(ctx, org, id, next)
	if err != nil {
		return appointmentmodels.Appointment{}, err
	}
	var from string
	if n := len(a.StatusHistory); n > 0 {
		from = string(a.StatusHistory[n-1].Status)
	}
	s.effects.Announce(ctx, basesvc.Transition{
		Entity:         entityAppointment,
		EntityID:       a.ID.Hex(),
		OrganizationID: org.Hex(),
		From:           from,
		To:             string(a.Status.Status),
		Reason:         a.Status.Reason,
		UpdatedBy:      actor.ID,
		UpdatedAt:      a.Status.UpdatedAt,
	})
	return a, nil
}
