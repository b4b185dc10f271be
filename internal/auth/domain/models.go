// Package domain contains the API token model backing bearer-token
// authentication. Tokens only resolve the acting user; there are no
// roles or per-route permissions.
package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

type APIToken struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID    int64          `gorm:"not null;index" json:"user_id"`
	Name      string         `gorm:"not null" json:"name"`
	KeyHash   string         `gorm:"not null;uniqueIndex" json:"-"`
	Scopes    pq.StringArray `gorm:"type:text[]" json:"scopes"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (APIToken) TableName() string { return "api_tokens" }

// HashToken derives the stored digest for a raw bearer token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewRawToken mints a random bearer token. Only its hash is persisted.
func NewRawToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
