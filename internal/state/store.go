package state

import (
	"context"

	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
)

// Store owns the durable snapshot of the whole application state. There is no
// field-level update API: callers load the full state, mutate it in memory,
// and write the full state back. Two independent writers racing on plain Save
// end up last-writer-wins; SaveRevision is the optimistic alternative.
type Store interface {
	// Load returns the last persisted snapshot. It never fails: an absent or
	// corrupt store degrades to the default empty state.
	Load(ctx context.Context) *models.AppState

	// Save atomically replaces the persisted snapshot. Readers never observe
	// a partially written state. Fails with CodePersist when the medium is
	// unwritable.
	Save(ctx context.Context, snapshot *models.AppState) error

	// SaveRevision behaves like Save but fails with CodeVersionConflict when
	// the persisted revision no longer matches the snapshot's loaded
	// revision, leaving the persisted state untouched.
	SaveRevision(ctx context.Context, snapshot *models.AppState) error
}

// Default constructs the empty initial state carrying the configured limits.
func Default(limits config.LimitsConfig) *models.AppState {
	return &models.AppState{
		Users:             []models.User{},
		Bills:             []models.Bill{},
		Logs:              []models.AuditLog{},
		SystemMaintenance: false,
		Limits:            models.Limits{FreeBillLimit: limits.FreeBillLimit},
	}
}
