package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ResolveInput identifies a product for an invoice item. An explicit
// ProductID is trusted as-is; otherwise the name is resolved against
// the catalog, creating the product when absent.
type ResolveInput struct {
	ProductID   snowflake.ID
	HSNCode     string
	Name        string
	BagWeightKg float64 // 0 means use the configured default
}

// Resolution is the outcome of a catalog lookup.
type Resolution struct {
	ProductID snowflake.ID
	HSNCode   string
	Created   bool
}

// Resolver resolves products inside a caller-owned transaction. A
// unique-constraint violation on insert (two writers racing the same
// code or name) is returned as-is so the enclosing transaction fails
// whole; retrying is the caller's business.
type Resolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, in ResolveInput) (Resolution, error)
}

type ResolveOrCreateRequest struct {
	Name               string
	DefaultBagWeightKg float64
}

type ListProductRequest struct{}

type ListProductResponse struct {
	Products []Product `json:"products"`
}

type Service interface {
	// ResolveOrCreate is idempotent by name: the second call returns
	// the row the first one created.
	ResolveOrCreate(context.Context, ResolveOrCreateRequest) (Product, error)
	List(context.Context, ListProductRequest) (ListProductResponse, error)
}

var (
	ErrMissingName = errors.New("missing_name")
	ErrNotFound    = errors.New("not_found")
)
