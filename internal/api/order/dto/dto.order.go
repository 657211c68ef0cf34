// Package orderdto holds request shapes for the order routes.
package orderdto

import basedto "servicehub/internal/api/base/dto"

// OrderCreateInput places an order. With a quote, the client and line items default to
// the quote's.
type OrderCreateInput struct {
	Quote     string                  `json:"quote" validate:"omitempty,objectid"`
	Client    *basedto.ClientInput    `json:"client" validate:"omitempty"`
	LineItems []basedto.LineItemInput `json:"lineItems" validate:"omitempty,dive"`
}

type OrderListQuery struct {
	Status string `query:"status"`
	Quote  string `query:"quote" validate:"omitempty,objectid"`
	Page   int64  `query:"page"`
	Limit  int64  `query:"limit"`
}
