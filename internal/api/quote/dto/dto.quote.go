// Package quotedto holds request shapes for the quote routes.
package quotedto

import basedto "servicehub/internal/api/base/dto"

type QuoteCreateInput struct {
	Title      string                  `json:"title" validate:"required,no_xss"`
	Job        string                  `json:"job" validate:"omitempty,objectid"`
	Client     basedto.ClientInput     `json:"client" validate:"required"`
	LineItems  []basedto.LineItemInput `json:"lineItems" validate:"required,min=1,dive"`
	ValidUntil string                  `json:"validUntil" validate:"omitempty,date_ymd"`
}

// QuoteListQuery filters GET /quotes.
type QuoteListQuery struct {
	Status string `query:"status"`
	Client string `query:"client" validate:"omitempty,no_xss"`
	Job    string `query:"job" validate:"omitempty,objectid"`
	Page   int64  `query:"page"`
	Limit  int64  `query:"limit"`
}
