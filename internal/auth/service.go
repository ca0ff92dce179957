package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/billminder-backend/internal/audit"
	"github.com/angelmondragon/billminder-backend/internal/state"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
	"github.com/angelmondragon/billminder-backend/pkg/security"
	"github.com/angelmondragon/billminder-backend/pkg/validate"
	"github.com/google/uuid"
)

const invalidCredentialsMessage = "invalid credentials"

// CredentialVerifier is the collaborator predicate deciding whether a
// password matches. The hashing and storage scheme is its concern, not ours.
type CredentialVerifier interface {
	Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error)
}

// CredentialRegistrar additionally records credentials at signup.
type CredentialRegistrar interface {
	CredentialVerifier
	Set(ctx context.Context, userID uuid.UUID, password string) error
}

// SignupRequest is the profile captured at registration.
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=8"`
}

// ServiceParams bundles the dependencies required to build the auth service.
type ServiceParams struct {
	Store       state.Store
	Credentials CredentialRegistrar
	Cache       *SessionCache
	AdminEmail  string
	Logger      *logger.Logger
}

// Service is the session/auth manager: a state machine over
// {Anonymous, Authenticated(user)} with an explicit, injected session handle.
type Service struct {
	store      state.Store
	creds      CredentialRegistrar
	cache      *SessionCache
	adminEmail string
	logg       *logger.Logger
	session    Session
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if params.AdminEmail == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		store:      params.Store,
		creds:      params.Credentials,
		cache:      params.Cache,
		adminEmail: params.AdminEmail,
		logg:       params.Logger,
		session:    Anonymous,
	}, nil
}

// Session returns the current session handle.
func (s *Service) Session() Session {
	return s.session
}

// Current returns the session user copy, if authenticated.
func (s *Service) Current() (models.User, bool) {
	return s.session.User()
}

// IsAdmin reports administrative privilege for the current session.
func (s *Service) IsAdmin() bool {
	return s.session.IsAdmin(s.adminEmail)
}

// Login authenticates by exact email match and collaborator-verified
// password. Unknown email, wrong password, and deactivated account all
// collapse into the same invalid-credentials failure so callers cannot
// enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, error) {
	snapshot := s.store.Load(ctx)

	user := snapshot.UserByEmail(email)
	if user == nil {
		return models.User{}, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	ok, err := s.creds.Verify(ctx, user.ID, password)
	if err != nil {
		return models.User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !user.IsActive {
		return models.User{}, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	user.LastLoginAt = time.Now().UTC()
	snapshot.AppendLog(audit.Record(audit.ActionLogin, user.ID, "User logged in successfully"))
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.User{}, err
	}

	s.establish(ctx, *user)
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "login succeeded")
	return *user, nil
}

// Logout ends the session. Calling it while Anonymous is a no-op.
func (s *Service) Logout(ctx context.Context) error {
	user, ok := s.session.User()
	if !ok {
		return nil
	}

	snapshot := s.store.Load(ctx)
	snapshot.AppendLog(audit.Record(audit.ActionLogout, user.ID, "User logged out"))
	if err := s.store.Save(ctx, snapshot); err != nil {
		return err
	}

	s.session = Anonymous
	if s.cache != nil {
		if err := s.cache.Clear(); err != nil {
			s.logg.Warn(ctx, "failed to clear session cache")
		}
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "logout")
	return nil
}

// Signup registers a new account and establishes it as the active session.
// The single configured administrator email is upgraded to the admin role and
// assigned its capability slug, exactly once; the slug is never logged.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (models.User, error) {
	if err := validate.Struct(req); err != nil {
		return models.User{}, err
	}

	snapshot := s.store.Load(ctx)
	if snapshot.UserByEmail(req.Email) != nil {
		return models.User{}, pkgerrors.New(pkgerrors.CodeEmailRegistered, "email already registered")
	}

	now := time.Now().UTC()
	user := models.User{
		ID:          uuid.New(),
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Role:        enums.UserRoleUser,
		Tier:        enums.SubscriptionTierFree,
		IsActive:    true,
		CreatedAt:   now,
		LastLoginAt: now,
	}
	if req.Email == s.adminEmail {
		slug, err := security.NewAdminSlug()
		if err != nil {
			return models.User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint admin slug")
		}
		user.Role = enums.UserRoleAdmin
		user.AdminSlug = &slug
	}

	if err := s.creds.Set(ctx, user.ID, req.Password); err != nil {
		return models.User{}, err
	}

	snapshot.Users = append(snapshot.Users, user)
	snapshot.AppendLog(audit.Record(audit.ActionSignup, user.ID, fmt.Sprintf("User registered as %s", user.Role)))
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.User{}, err
	}

	s.establish(ctx, user)
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "signup succeeded")
	return user, nil
}

// Refresh replaces the session copy with the authoritative user record, so
// changes made elsewhere (an administrative deactivation, a tier upgrade)
// become visible without logging out. A deleted record collapses the session
// to Anonymous.
func (s *Service) Refresh(ctx context.Context) (models.User, bool) {
	current, ok := s.session.User()
	if !ok {
		return models.User{}, false
	}

	snapshot := s.store.Load(ctx)
	updated := snapshot.UserByID(current.ID)
	if updated == nil {
		s.session = Anonymous
		if s.cache != nil {
			_ = s.cache.Clear()
		}
		return models.User{}, false
	}

	s.session = Authenticated(*updated)
	return *updated, true
}

// Restore rebuilds the session from the persisted cache on process start.
// The cache is only a hint: the user record is re-read from the store, and a
// missing or deactivated account yields Anonymous.
func (s *Service) Restore(ctx context.Context) (models.User, bool) {
	if s.cache == nil {
		return models.User{}, false
	}

	userID, err := s.cache.Read()
	if err != nil {
		return models.User{}, false
	}

	snapshot := s.store.Load(ctx)
	user := snapshot.UserByID(userID)
	if user == nil || !user.IsActive {
		_ = s.cache.Clear()
		return models.User{}, false
	}

	s.session = Authenticated(*user)
	return *user, true
}

func (s *Service) establish(ctx context.Context, user models.User) {
	s.session = Authenticated(user)
	if s.cache == nil {
		return
	}
	if err := s.cache.Write(user.ID); err != nil {
		s.logg.Warn(ctx, "failed to persist session cache")
	}
}
