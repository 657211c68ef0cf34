// Package ordersvc implements the order operations. Placing an order from an approved quote
// converts the quote in the same transaction.
package ordersvc

import (
	"context"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	orderdto "servicehub/internal/api/order/dto"
	ordermodels "servicehub/internal/api/order/models"
	quotemodels "servicehub/internal/api/quote/models"
	quotesvc "servicehub/internal/api/quote/service"
	"servicehub/internal/common"
	"servicehub/internal/database"
	"servicehub/internal/statushistory"
	"servicehub/internal/utility"
)

type Deps struct {
	Store      Store
	Quotes     quotesvc.Store
	Transactor database.Transactor
	Effects    basesvc.Effects
	Random     io.Reader
	Now        func() time.Time
}

type OrderService struct {
	store   Store
	quotes  quotesvc.Store
	tx      database.Transactor
	effects basesvc.Effects
	random  io.Reader
	now     func() time.Time
}

func NewOrderService(d Deps) *OrderService {
	s := &OrderService{store: d.Store, quotes: d.Quotes, tx: d.Transactor, effects: d.Effects, random: d.Random, now: d.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create places a PENDING order. With a quote, the quote must be APPROVED; it becomes
// CONVERTED in the same transaction.
func (s *OrderService) Create(ctx context.Context, actor auth.Actor, org primitive.ObjectID, in orderdto.OrderCreateInput) (ordermodels.Order, error) {
	lines, err := basedto.ToLineItems(in.LineItems)
	if err != nil {
		return ordermodels.Order{}, err
	}
	var quoteID primitive.ObjectID
	if in.Quote != "" {
		if quoteID, err = utility.ParseObjectID("quote", in.Quote); err != nil {
			return ordermodels.Order{}, err
		}
	} else if len(lines) == 0 || in.Client == nil {
		return ordermodels.Order{}, common.ValidationError("An order without a quote needs a client and line items", nil)
	}
	now := s.now()

	order := ordermodels.Order{
		OwnerOrganizationID: org,
		Quote:               quoteID,
		LineItems:           lines,
		Status:              statushistory.Initial(ordermodels.StatusPending, actor.ID, now),
		StatusHistory:       []statushistory.Entry[ordermodels.Status]{},
		CreatedBy:           actor.ID,
	}
	if in.Client != nil {
		order.Client = in.Client.ToClient()
	}

	var converted quotemodels.Quote
	created, err := basesvc.InsertWithRefCode(ctx, ordermodels.RefCodePrefix, now, s.random,
		func(ref string) ordermodels.Order {
			o := order
			o.RefCode = ref
			return o
		},
		func(ctx context.Context, o ordermodels.Order) (ordermodels.Order, error) {
			var out ordermodels.Order
			err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
				if !quoteID.IsZero() {
					q, err := s.convert(ctx, actor, org, quoteID, now)
					if err != nil {
						return err
					}
					converted = q
					if in.Client == nil {
						o.Client = q.Client
					}
					if len(o.LineItems) == 0 {
						o.LineItems = q.LineItems
					}
				}
				o.Total = basemodels.LineItemsTotal(o.LineItems).StringFixed(2)
				var err error
				out, err = s.store.Insert(ctx, o)
				return err
			})
			return out, err
		})
	if err != nil {
		return ordermodels.Order{}, err
	}

	if !quoteID.IsZero() {
		s.effects.Announce(ctx, basesvc.Transition{
			Entity:         "quote",
			EntityID:       quoteID.Hex(),
			OrganizationID: org.Hex(),
			From:           string(quotemodels.StatusApproved),
			To:             string(converted.Status.Status),
			UpdatedBy:      actor.ID,
			UpdatedAt:      converted.Status.UpdatedAt,
		})
	}
	return created, nil
}

func (s *OrderService) convert(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, now time.Time) (quotemodels.Quote, error) {
	q, err := s.quotes.Get(ctx, org, id)
	if err != nil {
		return quotemodels.Quote{}, err
	}
	if q.Status.Status != quotemodels.StatusApproved {
		return quotemodels.Quote{}, common.ValidationError("Only an approved quote can be ordered",
			map[string]string{"quote": id.Hex(), "status": string(q.Status.Status)})
	}
	next := statushistory.Initial(quotemodels.StatusConverted, actor.ID, now)
	return s.quotes.Transition(ctx, org, id, next)
}

func (s *OrderService) Get(ctx context.Context, org, id primitive.ObjectID) (ordermodels.Order, error) {
	return s.store.Get(ctx, org, id)
}

func (s *OrderService) List(ctx context.Context, org primitive.ObjectID, q orderdto.OrderListQuery) (*basemodels.PaginateResult[ordermodels.Order], error) {
	f := ListFilter{Status: ordermodels.Status(q.Status)}
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.ValidationError("Unknown order status", map[string]string{"status": q.Status})
	}
	if q.Quote != "" {
		quote, err := utility.ParseObjectID("quote", q.Quote)
		if err != nil {
			return nil, err
		}
		f.Quote = quote
	}
	f.Page, f.Limit = basesvc.ClampPage(q.Page, q.Limit)
	items, total, err := s.store.List(ctx, org, f)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, f.Page, f.Limit, total), nil
}

// UpdateStatus moves an order to in.Status. Cancelling needs a reason.
func (s *OrderService) UpdateStatus(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.StatusInput) (ordermodels.Order, error) {
	status := ordermodels.Status(in.Status)
	if !status.Valid() {
		return ordermodels.Order{}, common.ValidationError("Unknown order status", map[string]string{"status": in.Status})
	}
	if status == ordermodels.StatusCancelled && strings.TrimSpace(in.Reason) == "" {
		return ordermodels.Order{}, common.ValidationError("A cancelled order needs a reason", nil)
	}
	next := statushistory.Initial(status, actor.ID, s.now())
	next.Reason = in.Reason

	o, err := s.store.Transition(ctx, org, id, next)
	if err != nil {
		return ordermodels.Order{}, err
	}
	var from string
	if n := len(o.StatusHistory); n > 0 {
		from = string(o.StatusHistory[n-1].Status)
	}
	s.effects.Announce(ctx, basesvc.Transition{
		Entity:         entityOrder,
		EntityID:       o.ID.Hex(),
		OrganizationID: org.Hex(),
		From:           from,
		To:             string(o.Status.Status),
		Reason:         o.Status.Reason,
		UpdatedBy:      actor.ID,
		UpdatedAt:      o.Status.UpdatedAt,
	})
	return o, nil
}
