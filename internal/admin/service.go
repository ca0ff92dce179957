package admin

import (
	"context"
	"fmt"

	"github.com/angelmondragon/billminder-backend/internal/audit"
	"github.com/angelmondragon/billminder-backend/internal/state"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
	"github.com/google/uuid"
)

// ServiceParams bundles the dependencies for the administrative surface.
type ServiceParams struct {
	Store      state.Store
	AdminEmail string
	Logger     *logger.Logger
}

// Service carries the operations reachable only through the slug-gated admin
// surface: account lifecycle, tier changes, maintenance mode, and audit
// review. Every operation re-checks the actor; the guard decides routing, the
// service decides authority.
type Service struct {
	store      state.Store
	adminEmail string
	logg       *logger.Logger
}

// NewService constructs the admin service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if params.AdminEmail == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{store: params.Store, adminEmail: params.AdminEmail, logg: params.Logger}, nil
}

func (s *Service) requireAdmin(actor models.User) error {
	if !actor.IsAdminAccount(s.adminEmail) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrative privilege required")
	}
	return nil
}

// DeactivateUser suspends an account. The user record and its bills are
// retained; login and restore are refused until reactivation. Deactivating
// the administrator account itself is refused to avoid locking out the only
// privileged identity.
func (s *Service) DeactivateUser(ctx context.Context, actor models.User, userID uuid.UUID) (models.User, error) {
	if err := s.requireAdmin(actor); err != nil {
		return models.User{}, err
	}

	snapshot := s.store.Load(ctx)
	user := snapshot.UserByID(userID)
	if user == nil {
		return models.User{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if user.IsAdminAccount(s.adminEmail) {
		return models.User{}, pkgerrors.New(pkgerrors.CodeForbidden, "the administrator account cannot be deactivated")
	}
	if !user.IsActive {
		return *user, nil
	}

	user.IsActive = false
	snapshot.AppendLog(audit.Record(audit.ActionUserDeactivated, actor.ID, fmt.Sprintf("Deactivated user %s", user.Email)))
	updated := *user
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.User{}, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "user deactivated")
	return updated, nil
}

// ReactivateUser lifts a suspension. Reactivating an active account is a
// no-op.
func (s *Service) ReactivateUser(ctx context.Context, actor models.User, userID uuid.UUID) (models.User, error) {
	if err := s.requireAdmin(actor); err != nil {
		return models.User{}, err
	}

	snapshot := s.store.Load(ctx)
	user := snapshot.UserByID(userID)
	if user == nil {
		return models.User{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if user.IsActive {
		return *user, nil
	}

	user.IsActive = true
	snapshot.AppendLog(audit.Record(audit.ActionUserReactivated, actor.ID, fmt.Sprintf("Reactivated user %s", user.Email)))
	updated := *user
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.User{}, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "user reactivated")
	return updated, nil
}

// SetTier moves an account between subscription tiers. Existing bills above
// the free-tier quota survive a downgrade; the quota binds on the next create.
func (s *Service) SetTier(ctx context.Context, actor models.User, userID uuid.UUID, tier enums.SubscriptionTier) (models.User, error) {
	if err := s.requireAdmin(actor); err != nil {
		return models.User{}, err
	}
	if !tier.IsValid() {
		return models.User{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription tier")
	}

	snapshot := s.store.Load(ctx)
	user := snapshot.UserByID(userID)
	if user == nil {
		return models.User{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if user.Tier == tier {
		return *user, nil
	}

	user.Tier = tier
	snapshot.AppendLog(audit.Record(audit.ActionUserUpgraded, actor.ID, fmt.Sprintf("Moved user %s to tier %s", user.Email, tier)))
	updated := *user
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.User{}, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "user tier changed")
	return updated, nil
}

// SetMaintenance toggles the system maintenance flag.
func (s *Service) SetMaintenance(ctx context.Context, actor models.User, enabled bool) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	snapshot := s.store.Load(ctx)
	if snapshot.SystemMaintenance == enabled {
		return nil
	}

	snapshot.SystemMaintenance = enabled
	snapshot.AppendLog(audit.Record(audit.ActionMaintenanceToggled, actor.ID, fmt.Sprintf("Maintenance mode set to %t", enabled)))
	if err := s.store.Save(ctx, snapshot); err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "maintenance", enabled), "maintenance mode toggled")
	return nil
}

// ListUsers returns every account in insertion order.
func (s *Service) ListUsers(ctx context.Context, actor models.User) ([]models.User, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Load(ctx).Users, nil
}

// ListLogs returns the audit trail in insertion order.
func (s *Service) ListLogs(ctx context.Context, actor models.User) ([]models.AuditLog, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Load(ctx).Logs, nil
}
