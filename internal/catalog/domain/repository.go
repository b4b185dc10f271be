package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the database handle so callers can pass an
// open transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	// FindByName returns the first match in storage order, or nil.
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Product, error)
	HSNCodeTaken(ctx context.Context, db *gorm.DB, code string) (bool, error)
	List(ctx context.Context, db *gorm.DB) ([]*Product, error)
}
