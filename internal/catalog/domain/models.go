// Package domain contains persistence models for the product catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Product is a catalog row. The name is the natural key used by the
// resolver (first match wins) but is not unique at the storage layer;
// the HSN code is.
type Product struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Name               string       `gorm:"not null;index" json:"name"`
	HSNCode            string       `gorm:"column:hsn_code;not null;uniqueIndex" json:"hsn_code"`
	DefaultBagWeightKg float64      `gorm:"not null" json:"default_bag_weight_kg"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }
