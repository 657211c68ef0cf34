// Package basedto holds request shapes shared by several domains.
package basedto

import (
	"time"

	basemodels "servicehub/internal/api/base/models"
	"servicehub/internal/utility"
)

// LineItemInput is a priced line in a request body.
type LineItemInput struct {
	LineItem  string  `json:"lineItem" validate:"omitempty,objectid"`
	Name      string  `json:"name" validate:"required,no_xss"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

// ClientInput names the customer.
type ClientInput struct {
	FirstName string `json:"firstName" validate:"required,no_xss"`
	LastName  string `json:"lastName" validate:"omitempty,no_xss"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,no_xss"`
}

// StatusInput is the body of every update-status route.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,no_xss"`
}

// FeedbackInput is the body of the feedback routes.
type FeedbackInput struct {
	Note   string `json:"note" validate:"omitempty,no_xss"`
	Rating int    `json:"rating" validate:"min=1,max=5"`
}

// CompleteInput is the non-file part of a multipart completion form.
type CompleteInput struct {
	Note string `json:"note" form:"note" validate:"omitempty,no_xss"`
}

// ToLineItems converts request lines, failing on an invalid line item id.
func ToLineItems(in []LineItemInput) ([]basemodels.LineItem, error) {
	out := make([]basemodels.LineItem, 0, len(in))
	for _, l := range in {
		item := basemodels.LineItem{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
		if l.LineItem != "" {
			id, err := utility.ParseObjectID("lineItem", l.LineItem)
			if err != nil {
				return nil, err
			}
			item.LineItem = id
		}
		out = append(out, item)
	}
	return out, nil
}

// ToClient converts the client input, deriving the full name.
func (c ClientInput) ToClient() basemodels.Client {
	return basemodels.NewClient(c.FirstName, c.LastName, c.Email, c.Phone)
}

// ToFeedback stamps the feedback with its author and time.
func (f FeedbackInput) ToFeedback(actorID string, now time.Time) basemodels.Feedback {
	return basemodels.Feedback{Note: f.Note, Rating: f.Rating, Date: now.UnixMilli(), By: actorID}
}
