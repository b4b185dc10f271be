package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/indigobills/indigobills/pkg/db/pagination"
)

// ClientInput is an inline client payload. Used when the caller has no
// existing client id; the row is inserted as part of the invoice
// transaction, without deduplication.
type ClientInput struct {
	Name           string
	Address        string
	MotorVehicleNo string
	GSTIN          string
	Phone          string
}

// ItemInput is one requested invoice line. A nil RatePerBag selects
// per-kg pricing; a non-nil one selects per-bag pricing even when the
// rate is zero. Zero BagWeightKg falls back to the configured default.
type ItemInput struct {
	ProductID       snowflake.ID
	Name            string
	Description     string
	HSNCode         string
	NumBags         float64
	BagWeightKg     float64
	RatePerBag      *float64
	RatePerKg       *float64
	DiscountPercent float64
	GSTPercent      float64
}

type CreateInvoiceRequest struct {
	UserID          int64
	ClientID        snowflake.ID
	Client          *ClientInput
	MotorVehicleNo  string
	DeliveryAddress string
	Notes           string
	DiscountPercent float64
	Items           []ItemInput
}

type CreateInvoiceResponse struct {
	Invoice Invoice       `json:"invoice"`
	Items   []InvoiceItem `json:"items"`
}

// ReplaceInvoiceItemsRequest overwrites an invoice in place: all items
// are replaced, header fields and totals rewritten. The invoice number
// and the client reference are left untouched.
type ReplaceInvoiceItemsRequest struct {
	InvoiceID       snowflake.ID
	MotorVehicleNo  string
	DeliveryAddress string
	Notes           string
	DiscountPercent float64
	Items           []ItemInput
}

type GetInvoiceRequest struct {
	ID snowflake.ID
}

type GetInvoiceResponse struct {
	Invoice Invoice       `json:"invoice"`
	Items   []InvoiceItem `json:"items"`
}

type ListInvoiceRequest struct {
	ClientID    snowflake.ID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	PageToken   string
	PageSize    int
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (CreateInvoiceResponse, error)
	ReplaceItems(context.Context, ReplaceInvoiceItemsRequest) (GetInvoiceResponse, error)
	GetByID(context.Context, GetInvoiceRequest) (GetInvoiceResponse, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
}

var (
	// ErrCounterUninitialized is a fatal setup defect: the singleton
	// counter row is absent. Never auto-healed.
	ErrCounterUninitialized = errors.New("invoice counter not initialized")

	ErrNotFound           = errors.New("not_found")
	ErrMissingClient      = errors.New("missing_client")
	ErrMissingProductName = errors.New("missing_product_name")
	ErrInvalidID          = errors.New("invalid_id")
)
