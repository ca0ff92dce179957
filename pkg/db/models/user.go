package models

import (
	"time"

	"github.com/angelmondragon/billminder-backend/pkg/enums"
	"github.com/google/uuid"
)

// User represents the canonical identity entity. AdminSlug is nil for every
// account except the single configured administrator, where it is assigned
// exactly once at signup.
type User struct {
	ID          uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	FullName    string                 `gorm:"column:full_name;not null" json:"fullName"`
	Email       string                 `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Phone       string                 `gorm:"column:phone" json:"phone"`
	Role        enums.UserRole         `gorm:"type:text;not null" json:"role"`
	Tier        enums.SubscriptionTier `gorm:"type:text;not null" json:"tier"`
	IsActive    bool                   `gorm:"column:is_active;not null;default:true" json:"isActive"`
	AdminSlug   *string                `gorm:"column:admin_slug" json:"adminSlug,omitempty"`
	CreatedAt   time.Time              `gorm:"column:created_at;not null" json:"createdAt"`
	LastLoginAt time.Time              `gorm:"column:last_login_at;not null" json:"lastLoginAt"`

	// Position preserves insertion order across snapshot round-trips.
	Position int `gorm:"column:position;not null" json:"-"`
}

// IsAdminAccount reports whether the record holds the admin role bound to the
// configured administrator email. Role alone is never sufficient.
func (u User) IsAdminAccount(adminEmail string) bool {
	return u.Role == enums.UserRoleAdmin && u.Email == adminEmail
}
