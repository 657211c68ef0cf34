package appointmentsvc

import (
	"context"
	"errors"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	appointmentdto "servicehub/internal/api/appointment/dto"
	appointmentmodels "servicehub/internal/api/appointment/models"
	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/statushistory"
)

var (
	fixedNow  = time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)
	reception = auth.Actor{ID: "reception-1", Roles: []string{auth.RoleManager}}
)

type memAppointments struct {
	docs map[primitive.ObjectID]appointmentmodels.Appointment
	fail error
	last AppointmentFilter
}

func (m *memAppointments) Insert(_ context.Context, a appointmentmodels.Appointment) (appointmentmodels.Appointment, error) {
	if m.fail != nil {
		return appointmentmodels.Appointment{}, m.fail
	}
	a.ID = primitive.NewObjectID()
	m.docs[a.ID] = a
	return a, nil
}

func (m *memAppointments) Get(_ context.Context, org, id primitive.ObjectID) (appointmentmodels.Appointment, error) {
	a, ok := m.docs[id]
	if !ok || a.OwnerOrganizationID != org {
		return appointmentmodels.Appointment{}, common.NotFoundError(entityAppointment, id.Hex())
	}
	return a, nil
}

func (m *memAppointments) List(_ context.Context, _ primitive.ObjectID, f AppointmentFilter) ([]appointmentmodels.Appointment, int64, error) {
	m.last = f
	return nil, 0, nil
}

func (m *memAppointments) Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[appointmentmodels.AppointmentStatus]) (appointmentmodels.Appointment, error) {
	a, err := m.Get(ctx, org, id)
	if err != nil {
		return a, err
	}
	a.StatusHistory = append(a.StatusHistory, a.Status)
	a.Status = next
	m.docs[id] = a
	return a, nil
}

type memBookings struct {
	docs map[primitive.ObjectID]appointmentmodels.Booking
}

func (m *memBookings) Insert(_ context.Context, b appointmentmodels.Booking) (appointmentmodels.Booking, error) {
	b.ID = primitive.NewObjectID()
	m.docs[b.ID] = b
	return b, nil
}

func (m *memBookings) Get(_ context.Context, org, id primitive.ObjectID) (appointmentmodels.Booking, error) {
	b, ok := m.docs[id]
	if !ok || b.OwnerOrganizationID != org {
		return appointmentmodels.Booking{}, common.NotFoundError(entityBooking, id.Hex())
	}
	return b, nil
}

func (m *memBookings) List(context.Context, primitive.ObjectID, BookingFilter) ([]appointmentmodels.Booking, int64, error) {
	return nil, 0, nil
}

func (m *memBookings) Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[appointmentmodels.BookingStatus]) (appointmentmodels.Booking, error) {
	return m.Accept(ctx, org, id, next, primitive.NilObjectID)
}

func (m *memBookings) Accept(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[appointmentmodels.BookingStatus], appointment primitive.ObjectID) (appointmentmodels.Booking, error) {
	b, err := m.Get(ctx, org, id)
	if err != nil {
		return b, err
	}
	b.PrevStatus = append(b.PrevStatus, b.Status)
	b.Status = next
	if !appointment.IsZero() {
		b.Appointment = appointment
	}
	m.docs[id] = b
	return b, nil
}

type memTx struct {
	appointments *memAppointments
	bookings     *memBookings
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	a, b := maps.Clone(t.appointments.docs), maps.Clone(t.bookings.docs)
	if err := fn(ctx); err != nil {
		t.appointments.docs, t.bookings.docs = a, b
		return database.WrapTransactionError(err)
	}
	return nil
}

type fixture struct {
	appointments *memAppointments
	bookings     *memBookings
	asvc         *AppointmentService
	bsvc         *BookingService
	org          primitive.ObjectID
}

func newFixture() *fixture {
	f := &fixture{
		appointments: &memAppointments{docs: map[primitive.ObjectID]appointmentmodels.Appointment{}},
		bookings:     &memBookings{docs: map[primitive.ObjectID]appointmentmodels.Booking{}},
		org:          primitive.NewObjectID(),
	}
	now := func() time.Time { return fixedNow }
	f.asvc = NewAppointmentService(f.appointments, basesvc.Effects{}, now)
	f.bsvc = NewBookingService(BookingDeps{
		Store:        f.bookings,
		Appointments: f.appointments,
		Transactor:   &memTx{appointments: f.appointments, bookings: f.bookings},
		Now:          now,
	})
	return f
}

func TestAppointment_CreateAndStatus(t *testing.T) {
	f := newFixture()
	a, err := f.asvc.Create(context.Background(), reception, f.org, appointmentdto.AppointmentCreateInput{
		Client:    basedto.ClientInput{FirstName: "Ann"},
		Date:      "2024-05-10",
		StartTime: "14:00",
		Duration:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, appointmentmodels.AppointmentScheduled, a.Status.Status)
	assert.NotNil(t, a.StatusHistory)

	noShow, err := f.asvc.UpdateStatus(context.Background(), reception, f.org, a.ID, basedto.StatusInput{Status: "NO-SHOW", Reason: "no answer"})
	require.NoError(t, err)
	assert.Equal(t, appointmentmodels.AppointmentNoShow, noShow.Status.Status)
	require.Len(t, noShow.StatusHistory, 1)
	assert.Equal(t, appointmentmodels.AppointmentScheduled, noShow.StatusHistory[0].Status)

	_, err = f.asvc.UpdateStatus(context.Background(), reception, f.org, a.ID, basedto.StatusInput{Status: "LATE"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAppointment_List(t *testing.T) {
	f := newFixture()
	_, err := f.asvc.List(context.Background(), f.org, appointmentdto.AppointmentListQuery{From: "2024-05-10", To: "2024-05-01"})
	assert.ErrorIs(t, err, common.ErrValidation)

	page, err := f.asvc.List(context.Background(), f.org, appointmentdto.AppointmentListQuery{Status: "DONE", From: "2024-05-01", To: "2024-05-31"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Page)
	assert.Equal(t, AppointmentFilter{Status: appointmentmodels.AppointmentDone, From: "2024-05-01", To: "2024-05-31", Page: 1, Limit: 50}, f.appointments.last)
}

func TestBooking_AcceptSchedulesAppointmentOnce(t *testing.T) {
	f := newFixture()
	b, err := f.bsvc.Create(context.Background(), reception, f.org, appointmentdto.BookingCreateInput{
		Client:        basedto.ClientInput{FirstName: "Bob", LastName: "Ray"},
		RequestedDate: "2024-05-08",
	})
	require.NoError(t, err)
	assert.Equal(t, appointmentmodels.BookingRequested, b.Status.Status)
	assert.NotNil(t, b.PrevStatus)

	accepted, err := f.bsvc.UpdateStatus(context.Background(), reception, f.org, b.ID, basedto.StatusInput{Status: "ACCEPTED"})
	require.NoError(t, err)
	require.False(t, accepted.Appointment.IsZero())
	require.Len(t, accepted.PrevStatus, 1)
	assert.Equal(t, appointmentmodels.BookingRequested, accepted.PrevStatus[0].Status)

	a, err := f.asvc.Get(context.Background(), f.org, accepted.Appointment)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-08", a.Date)
	assert.Equal(t, defaultStartTime, a.StartTime)
	assert.Equal(t, defaultDuration, a.Duration)
	assert.Equal(t, "Bob Ray", a.Client.FullName)

	again, err := f.bsvc.UpdateStatus(context.Background(), reception, f.org, b.ID, basedto.StatusInput{Status: "ACCEPTED"})
	require.NoError(t, err)
	assert.Equal(t, accepted.Appointment, again.Appointment)
	assert.Len(t, f.appointments.docs, 1)
	assert.Len(t, again.PrevStatus, 2)
}

func TestBooking_AcceptRollsBack(t *testing.T) {
	f := newFixture()
	b, err := f.bsvc.Create(context.Background(), reception, f.org, appointmentdto.BookingCreateInput{
		Client:        basedto.ClientInput{FirstName: "Bob"},
		RequestedDate: "2024-05-08",
	})
	require.NoError(t, err)
	f.appointments.fail = errors.New("write conflict")

	_, err = f.bsvc.UpdateStatus(context.Background(), reception, f.org, b.ID, basedto.StatusInput{Status: "ACCEPTED"})
	assert.ErrorIs(t, err, common.ErrTransaction)

	got, err := f.bsvc.Get(context.Background(), f.org, b.ID)
	require.NoError(t, err)
	assert.Equal(t, appointmentmodels.BookingRequested, got.Status.Status)
	assert.True(t, got.Appointment.IsZero())
}

func TestBooking_Rejects(t *testing.T) {
	f := newFixture()
	_, err := f.bsvc.Create(context.Background(), reception, f.org, appointmentdto.BookingCreateInput{
		Client:        basedto.ClientInput{FirstName: "Bob"},
		RequestedDate: "2024-05-01",
	})
	assert.ErrorIs(t, err, common.ErrValidation, "requested day already passed")

	_, err = f.bsvc.UpdateStatus(context.Background(), reception, f.org, primitive.NewObjectID(), basedto.StatusInput{Status: "DECLINED"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}
