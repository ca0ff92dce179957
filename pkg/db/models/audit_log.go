package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of a security- or lifecycle-relevant
// event. Entries are never mutated or deleted after creation and read back in
// insertion order.
type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action    string    `gorm:"not null" json:"action"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Details   string    `gorm:"type:text" json:"details"`

	// Position preserves insertion order across snapshot round-trips.
	Position int `gorm:"column:position;not null" json:"-"`
}
