// Package quotesvc implements the quote operations. Sending a quote mails it to the client.
package quotesvc

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	basedto "servicehub/internal/api/base/dto"
	basemodels "servicehub/internal/api/base/models"
	basesvc "servicehub/internal/api/base/service"
	quotedto "servicehub/internal/api/quote/dto"
	quotemodels "servicehub/internal/api/quote/models"
	"servicehub/internal/common"
	"servicehub/internal/mailer"
	"servicehub/internal/statushistory"
	"servicehub/internal/utility"
)

type Deps struct {
	Store    Store
	Effects  basesvc.Effects
	Mailer   mailer.Mailer
	MailFrom string
	Random   io.Reader
	Now      func() time.Time
}

type QuoteService struct {
	store    Store
	effects  basesvc.Effects
	mail     mailer.Mailer
	mailFrom string
	random   io.Reader
	now      func() time.Time
}

func NewQuoteService(d Deps) *QuoteService {
	s := &QuoteService{store: d.Store, effects: d.Effects, mail: d.Mailer, mailFrom: d.MailFrom, random: d.Random, now: d.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create stores a DRAFT quote with a fresh QT- reference code.
func (s *QuoteService) Create(ctx context.Context, actor auth.Actor, org primitive.ObjectID, in quotedto.QuoteCreateInput) (quotemodels.Quote, error) {
	var job primitive.ObjectID
	if in.Job != "" {
		var err error
		if job, err = utility.ParseObjectID("job", in.Job); err != nil {
			return quotemodels.Quote{}, err
		}
	}
	lines, err := basedto.ToLineItems(in.LineItems)
	if err != nil {
		return quotemodels.Quote{}, err
	}
	if len(lines) == 0 {
		return quotemodels.Quote{}, common.ValidationError("A quote needs at least one line item", nil)
	}
	now := s.now()
	if in.ValidUntil != "" {
		until, err := utility.ParseDate(in.ValidUntil)
		if err != nil {
			return quotemodels.Quote{}, err
		}
		if until.Before(utility.CivilDate(now)) {
			return quotemodels.Quote{}, common.ValidationError("validUntil is in the past", map[string]string{"validUntil": in.ValidUntil})
		}
	}

	q := quotemodels.Quote{
		OwnerOrganizationID: org,
		Job:                 job,
		Title:               in.Title,
		Client:              in.Client.ToClient(),
		LineItems:           lines,
		Total:               basemodels.LineItemsTotal(lines).StringFixed(2),
		ValidUntil:          in.ValidUntil,
		Status:              statushistory.Initial(quotemodels.StatusDraft, actor.ID, now),
		StatusHistory:       []statushistory.Entry[quotemodels.Status]{},
		CreatedBy:           actor.ID,
	}
	return basesvc.InsertWithRefCode(ctx, quotemodels.RefCodePrefix, now, s.random,
		func(ref string) quotemodels.Quote {
			q.RefCode = ref
			return q
		},
		s.store.Insert)
}

func (s *QuoteService) Get(ctx context.Context, org, id primitive.ObjectID) (quotemodels.Quote, error) {
	return s.store.Get(ctx, org, id)
}

func (s *QuoteService) List(ctx context.Context, org primitive.ObjectID, q quotedto.QuoteListQuery) (*basemodels.PaginateResult[quotemodels.Quote], error) {
	f := ListFilter{Status: quotemodels.Status(q.Status), Client: q.Client}
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.ValidationError("Unknown quote status", map[string]string{"status": q.Status})
	}
	if q.Job != "" {
		job, err := utility.ParseObjectID("job", q.Job)
		if err != nil {
			return nil, err
		}
		f.Job = job
	}
	f.Page, f.Limit = basesvc.ClampPage(q.Page, q.Limit)
	items, total, err := s.store.List(ctx, org, f)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, f.Page, f.Limit, total), nil
}

// UpdateStatus moves a quote to in.Status. Moving to SENT mails the quote to the client.
func (s *QuoteService) UpdateStatus(ctx context.Context, actor auth.Actor, org, id primitive.ObjectID, in basedto.StatusInput) (quotemodels.Quote, error) {
	status := quotemodels.Status(in.Status)
	if !status.Valid() {
		return quotemodels.Quote{}, common.ValidationError("Unknown quote status", map[string]string{"status": in.Status})
	}
	next := statushistory.Initial(status, actor.ID, s.now())
	next.Reason = in.Reason

	q, err := s.store.Transition(ctx, org, id, next)
	if err != nil {
		return quotemodels.Quote{}, err
	}
	s.announce(ctx, q)
	if status == quotemodels.StatusSent {
		basesvc.SendMail(ctx, s.mail, basesvc.Mail{
			From:     s.mailFrom,
			To:       q.Client.Email,
			Subject:  fmt.Sprintf("Your quote %s", q.RefCode),
			Template: sentMail(q),
		})
	}
	return q, nil
}

func sentMail(q quotemodels.Quote) mailer.Template {
	return mailer.Template{
		Name: mailer.TemplateQuoteSent,
		Context: map[string]interface{}{
			"ClientName": q.Client.FullName,
			"RefCode":    q.RefCode,
			"Total":      q.Total,
			"ValidUntil": q.ValidUntil,
		},
	}
}

func (s *QuoteService) announce(ctx context.Context, q quotemodels.Quote) {
	var from string
	if n := len(q.StatusHistory); n > 0 {
		from = string(q.StatusHistory[n-1].Status)
	}
	s.effects.Announce(ctx, basesvc.Transition{
		Entity:         entityQuote,
		EntityID:       q.ID.Hex(),
		OrganizationID: q.OwnerOrganizationID.Hex(),
		From:           from,
		To:             string(q.Status.Status),
		Reason:         q.Status.Reason,
		UpdatedBy:      q.Status.UpdatedBy,
		UpdatedAt:      q.Status.UpdatedAt,
	})
}
