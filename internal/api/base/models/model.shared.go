package models

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/storage"
	"servicehub/internal/utility"
)

// LineItem is one priced line of a visit, job, quote or order.
type LineItem struct {
	LineItem  primitive.ObjectID `json:"lineItem,omitempty" bson:"lineItem,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Quantity  float64            `json:"quantity" bson:"quantity"`
	UnitPrice float64            `json:"unitPrice" bson:"unitPrice"`
}

// PricedLines strips line items down to what pricing needs.
func PricedLines(items []LineItem) []utility.PricedLine {
	out := make([]utility.PricedLine, len(items))
	for i, it := range items {
		out[i] = utility.PricedLine{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

// LineItemsTotal is Σ quantity × unitPrice.
func LineItemsTotal(items []LineItem) decimal.Decimal {
	return utility.LineItemsTotal(PricedLines(items))
}

// Client is the customer a job, quote, appointment or booking is for.
// FullName is derived from the name parts when the client is built.
type Client struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	FullName  string `json:"fullName" bson:"fullName"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// NewClient builds a client with its full name derived.
func NewClient(first, last, email, phone string) Client {
	return Client{
		FirstName: first,
		LastName:  last,
		FullName:  utility.DeriveFullName(first, last),
		Email:     email,
		Phone:     phone,
	}
}

// Completion is written once, when work is marked complete.
type Completion struct {
	Note        string               `json:"note" bson:"note"`
	Docs        []storage.StoredFile `json:"docs" bson:"docs"`
	Date        int64                `json:"date" bson:"date"`
	CompletedBy string               `json:"completedBy" bson:"completedBy"`
}

// Feedback may be set or replaced at any time after creation.
type Feedback struct {
	Note   string `json:"note" bson:"note"`
	Rating int    `json:"rating" bson:"rating"`
	Date   int64  `json:"date" bson:"date"`
	By     string `json:"by,omitempty" bson:"by,omitempty"`
}
