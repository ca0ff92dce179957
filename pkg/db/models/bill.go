package models

import (
	"time"

	dbtypes "github.com/angelmondragon/billminder-backend/pkg/db/types"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill is a financial obligation owned by exactly one user. RemindersSent
// tracks the stages fired for the current due-date cycle and resets whenever
// a recurring bill rolls over.
type Bill struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"userId"`
	Name          string             `gorm:"not null" json:"name"`
	Category      enums.BillCategory `gorm:"type:text;not null" json:"category"`
	Amount        decimal.Decimal    `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency      enums.Currency     `gorm:"type:text;not null" json:"currency"`
	DueDate       time.Time          `gorm:"column:due_date;not null" json:"dueDate"`
	Recurrence    enums.Recurrence   `gorm:"type:text;not null" json:"recurrence"`
	IsPaid        bool               `gorm:"column:is_paid;not null;default:false" json:"isPaid"`
	RemindersSent dbtypes.StageSet   `gorm:"column:reminders_sent;type:text" json:"remindersSent"`
	CreatedAt     time.Time          `gorm:"column:created_at;not null" json:"createdAt"`

	// Position preserves insertion order across snapshot round-trips.
	Position int `gorm:"column:position;not null" json:"-"`
}
