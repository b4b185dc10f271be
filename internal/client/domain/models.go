// Package domain contains persistence models for clients.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Client is a consignee on file. Rows are append-mostly reference data:
// created on first use and reused across invoices. Names are not unique;
// deduplication is advisory, via the search endpoint.
type Client struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"not null;index" json:"name"`
	Address        string       `gorm:"type:text" json:"address"`
	MotorVehicleNo string       `json:"motor_vehicle_no"`
	GSTIN          string       `gorm:"column:gstin" json:"gstin"`
	Phone          string       `json:"phone"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
