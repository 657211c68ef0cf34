package ordersvc

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	orderdto "servicehub/internal/api/order/dto"
	ordermodels "servicehub/internal/api/order/models"
	quotemodels "servicehub/internal/api/quote/models"
	quotesvc "servicehub/internal/api/quote/service"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/statushistory"
)

var (
	fixedNow = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	clerk    = auth.Actor{ID: "clerk-1", Roles: []string{auth.RoleManager}}
)

// memDocs is a tiny tracked store keyed by id.
type memDocs[T any, V ~string] struct {
	mu     sync.Mutex
	docs   map[primitive.ObjectID]T
	id     func(*T) *primitive.ObjectID
	org    func(T) primitive.ObjectID
	status func(*T) (*statushistory.Entry[V], *[]statushistory.Entry[V])
	fail   error
}

func (m *memDocs[T, V]) Insert(_ context.Context, doc T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if m.fail != nil {
		return zero, m.fail
	}
	*m.id(&doc) = primitive.NewObjectID()
	m.docs[*m.id(&doc)] = doc
	return doc, nil
}

func (m *memDocs[T, V]) Get(_ context.Context, org, id primitive.ObjectID) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || m.org(doc) != org {
		var zero T
		return zero, common.NotFoundError("doc", id.Hex())
	}
	return doc, nil
}

func (m *memDocs[T, V]) Transition(ctx context.Context, org, id primitive.ObjectID, next statushistory.Entry[V]) (T, error) {
	doc, err := m.Get(ctx, org, id)
	if err != nil {
		return doc, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, hist := m.status(&doc)
	*cur, *hist = statushistory.Apply(*cur, *hist, statushistory.Change[V]{Status: next.Status, Reason: next.Reason}, next.UpdatedBy, time.UnixMilli(next.UpdatedAt))
	m.docs[id] = doc
	return doc, nil
}

type memOrders struct {
	*memDocs[ordermodels.Order, ordermodels.Status]
}

func (m memOrders) List(context.Context, primitive.ObjectID, ListFilter) ([]ordermodels.Order, int64, error) {
	return nil, 0, nil
}

type memQuotes struct {
	*memDocs[quotemodels.Quote, quotemodels.Status]
}

func (m memQuotes) List(context.Context, primitive.ObjectID, quotesvc.ListFilter) ([]quotemodels.Quote, int64, error) {
	return nil, 0, nil
}

type memTx struct {
	orders memOrders
	quotes memQuotes
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	orders, quotes := maps.Clone(t.orders.docs), maps.Clone(t.quotes.docs)
	if err := fn(ctx); err != nil {
		t.orders.docs, t.quotes.docs = orders, quotes
		return database.WrapTransactionError(err)
	}
	return nil
}

type fixture struct {
	svc    *OrderService
	orders memOrders
	quotes memQuotes
	org    primitive.ObjectID
}

func newFixture() *fixture {
	f := &fixture{
		orders: memOrders{&memDocs[ordermodels.Order, ordermodels.Status]{
			docs: map[primitive.ObjectID]ordermodels.Order{},
			id:   func(o *ordermodels.Order) *primitive.ObjectID { return &o.ID },
			org:  func(o ordermodels.Order) primitive.ObjectID { return o.OwnerOrganizationID },
			status: func(o *ordermodels.Order) (*statushistory.Entry[ordermodels.Status], *[]statushistory.Entry[ordermodels.Status]) {
				return &o.Status, &o.StatusHistory
			},
		}},
		quotes: memQuotes{&memDocs[quotemodels.Quote, quotemodels.Status]{
			docs: map[primitive.ObjectID]quotemodels.Quote{},
			id:   func(q *quotemodels.Quote) *primitive.ObjectID { return &q.ID },
			org:  func(q quotemodels.Quote) primitive.ObjectID { return q.OwnerOrganizationID },
			status: func(q *quotemodels.Quote) (*statushistory.Entry[quotemodels.Status], *[]statushistory.Entry[quotemodels.Status]) {
				return &q.Status, &q.StatusHistory
			},
		}},
		org: primitive.NewObjectID(),
	}
	f.svc = NewOrderService(Deps{
		Store:      f.orders,
		Quotes:     f.quotes,
		Transactor: &memTx{orders: f.orders, quotes: f.quotes},
		Now:        func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) quote(t *testing.T, status quotemodels.Status) quotemodels.Quote {
	t.Helper()
	q, err := f.quotes.Insert(context.Background(), quotemodels.Quote{
		OwnerOrganizationID: f.org,
		Client:              basemodels.NewClient("Ann", "Lee", "", ""),
		LineItems:           []basemodels.LineItem{{Name: "Hedge", Quantity: 2, UnitPrice: 12.5}},
		Status:              statushistory.Initial(status, "seller", fixedNow),
		StatusHistory:       []statushistory.Entry[quotemodels.Status]{},
	})
	require.NoError(t, err)
	return q
}

func TestCreate_FromApprovedQuote(t *testing.T) {
	f := newFixture()
	q := f.quote(t, quotemodels.StatusApproved)

	o, err := f.svc.Create(context.Background(), clerk, f.org, orderdto.OrderCreateInput{Quote: q.ID.Hex()})
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-20240402-`, o.RefCode)
	assert.Equal(t, q.ID, o.Quote)
	assert.Equal(t, "Ann Lee", o.Client.FullName)
	assert.Equal(t, q.LineItems, o.LineItems)
	assert.Equal(t, "25.00", o.Total)
	assert.Equal(t, ordermodels.StatusPending, o.Status.Status)

	converted, err := f.quotes.Get(context.Background(), f.org, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quotemodels.StatusConverted, converted.Status.Status)
	require.Len(t, converted.StatusHistory, 1)
	assert.Equal(t, quotemodels.StatusApproved, converted.StatusHistory[0].Status)
}

func TestCreate_QuoteNotApproved(t *testing.T) {
	f := newFixture()
	q := f.quote(t, quotemodels.StatusSent)

	_, err := f.svc.Create(context.Background(), clerk, f.org, orderdto.OrderCreateInput{Quote: q.ID.Hex()})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, f.orders.docs)
}

func TestCreate_InsertFailureKeepsQuoteApproved(t *testing.T) {
	f := newFixture()
	q := f.quote(t, quotemodels.StatusApproved)
	f.orders.fail = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), clerk, f.org, orderdto.OrderCreateInput{Quote: q.ID.Hex()})
	assert.ErrorIs(t, err, common.ErrTransaction)

	got, err := f.quotes.Get(context.Background(), f.org, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quotemodels.StatusApproved, got.Status.Status)
	assert.Empty(t, got.StatusHistory)
}

func TestCreate_Direct(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), clerk, f.org, orderdto.OrderCreateInput{})
	assert.ErrorIs(t, err, common.ErrValidation)

	o, err := f.svc.Create(context.Background(), clerk, f.org, orderdto.OrderCreateInput{
		Client:    &basedto.ClientInput{FirstName: "Bob"},
		LineItems: []basedto.LineItemInput{{Name: "Mulch", Quantity: 4, UnitPrice: 7.25}},
	})
	require.NoError(t, err)
	assert.True(t, o.Quote.IsZero())
	assert.Equal(t, "29.00", o.Total)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	o, err := f.svc.Create(context.Background(), clerk, f.org, orderdto.OrderCreateInput{
		Client:    &basedto.ClientInput{FirstName: "Bob"},
		LineItems: []basedto.LineItemInput{{Name: "Mulch", Quantity: 1, UnitPrice: 7}},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), clerk, f.org, o.ID, basedto.StatusInput{Status: "CANCELLED"})
	assert.ErrorIs(t, err, common.ErrValidation, "cancelling needs a reason")

	confirmed, err := f.svc.UpdateStatus(context.Background(), clerk, f.org, o.ID, basedto.StatusInput{Status: "CONFIRMED"})
	require.NoError(t, err)
	cancelled, err := f.svc.UpdateStatus(context.Background(), clerk, f.org, o.ID, basedto.StatusInput{Status: "CANCELLED", Reason: "client moved"})
	require.NoError(t, err)

	assert.Equal(t, ordermodels.StatusConfirmed, confirmed.Status.Status)
	assert.Equal(t, "client moved", cancelled.Status.Reason)
	assert.Equal(t, []ordermodels.Status{ordermodels.StatusPending, ordermodels.StatusConfirmed},
		[]ordermodels.Status{cancelled.StatusHistory[0].Status, cancelled.StatusHistory[1].Status})
}
