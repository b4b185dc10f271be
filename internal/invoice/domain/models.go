// Package domain contains persistence models for invoicing.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CounterRowID is the id of the singleton invoice counter row. The row
// is the single source of truth for invoice numbering and must exist
// before the first creation; it is seeded by setup, never by the
// allocator.
const CounterRowID int64 = 1

// InvoiceCounter holds the prefix and the next sequence value. Readers
// take the row under SELECT ... FOR UPDATE for the duration of their
// transaction, which serializes concurrent invoice creations.
type InvoiceCounter struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Prefix    string    `gorm:"not null" json:"prefix"`
	NextNo    int64     `gorm:"not null" json:"next_no"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (InvoiceCounter) TableName() string { return "invoice_counters" }

// FormatInvoiceNo renders prefix + zero-padded sequence. The pad width
// is fixed at five; larger sequence values widen the number instead of
// losing digits.
func FormatInvoiceNo(prefix string, no int64) string {
	return fmt.Sprintf("%s%05d", prefix, no)
}

// Invoice is the header row. Totals are derived: written as zero when
// the shell is inserted, then overwritten with the computed values in
// the same transaction. They are never incrementally updated.
type Invoice struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	InvoiceNo       string            `gorm:"not null;uniqueIndex" json:"invoice_no"`
	UserID          int64             `gorm:"not null;index" json:"user_id"`
	ClientID        snowflake.ID      `gorm:"not null;index" json:"client_id"`
	MotorVehicleNo  string            `json:"motor_vehicle_no"`
	DeliveryAddress string            `gorm:"type:text" json:"delivery_address"`
	TotalAmount     float64           `gorm:"not null;default:0" json:"total_amount"`
	DiscountPercent float64           `gorm:"not null;default:0" json:"discount_percent"`
	DiscountAmount  float64           `gorm:"not null;default:0" json:"discount_amount"`
	GrandTotal      float64           `gorm:"not null;default:0" json:"grand_total"`
	Notes           string            `gorm:"type:text" json:"notes"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one line of an invoice. Description and HSN code are
// denormalized snapshots so later catalog edits never alter an issued
// invoice. The per-item discount and GST percents are persisted but not
// folded into the header totals.
type InvoiceItem struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	ProductID       snowflake.ID `gorm:"not null;index" json:"product_id"`
	Description     string       `gorm:"type:text" json:"description"`
	HSNCode         string       `gorm:"column:hsn_code" json:"hsn_code"`
	NumBags         float64      `gorm:"not null;default:0" json:"num_bags"`
	BagWeightKg     float64      `gorm:"not null;default:0" json:"bag_weight_kg"`
	QuantityKg      float64      `gorm:"not null;default:0" json:"quantity_kg"`
	RatePerBag      *float64     `json:"rate_per_bag,omitempty"`
	RatePerKg       *float64     `json:"rate_per_kg,omitempty"`
	DiscountPercent float64      `gorm:"not null;default:0" json:"discount_percent"`
	GSTPercent      float64      `gorm:"not null;default:0" json:"gst_percent"`
	Amount          float64      `gorm:"not null;default:0" json:"amount"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
