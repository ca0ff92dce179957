package auth

import (
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
)

// Session is the explicit identity handle threaded through calls. It is
// either Anonymous or Authenticated with a user copy; the copy can go stale
// between refreshes, which is tolerated.
type Session struct {
	user *models.User
}

// Anonymous is the zero session.
var Anonymous = Session{}

// Authenticated wraps a user copy into a session.
func Authenticated(user models.User) Session {
	return Session{user: &user}
}

// IsAuthenticated reports whether a user is bound to the session.
func (s Session) IsAuthenticated() bool {
	return s.user != nil
}

// User returns a copy of the session user and whether one is present.
func (s Session) User() (models.User, bool) {
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// AdminSlug returns the capability token bound to the session user, empty for
// non-admin accounts.
func (s Session) AdminSlug() string {
	if s.user == nil || s.user.AdminSlug == nil {
		return ""
	}
	return *s.user.AdminSlug
}

// IsAdmin reports administrative privilege: the session must be authenticated
// AND hold the admin role AND match the single configured administrator
// email. Stored role alone is never trusted.
func (s Session) IsAdmin(adminEmail string) bool {
	if s.user == nil {
		return false
	}
	return s.user.IsAdminAccount(adminEmail)
}
