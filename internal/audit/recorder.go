package audit

import (
	"time"

	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Actions recorded by the core. The column is free-form; these cover every
// mutating operation.
const (
	ActionLogin              = "LOGIN"
	ActionLogout             = "LOGOUT"
	ActionSignup             = "SIGNUP"
	ActionBillCreated        = "BILL_CREATED"
	ActionBillUpdated        = "BILL_UPDATED"
	ActionBillPaid           = "BILL_PAID"
	ActionBillDeleted        = "BILL_DELETED"
	ActionUserDeactivated    = "USER_DEACTIVATED"
	ActionUserReactivated    = "USER_REACTIVATED"
	ActionUserUpgraded       = "USER_UPGRADED"
	ActionMaintenanceToggled = "MAINTENANCE_TOGGLED"
)

// Record constructs an immutable audit entry for the given action and actor.
// It has no side effect of its own: the caller appends the entry to the
// snapshot's log and persists. Details must never carry credential material.
func Record(action string, userID uuid.UUID, details string) models.AuditLog {
	return models.AuditLog{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}
