package guard

import (
	"fmt"

	"github.com/angelmondragon/billminder-backend/internal/auth"
	"github.com/angelmondragon/billminder-backend/pkg/security"
)

// Decision is the outcome of an access check.
type Decision string

const (
	// Allow lets the request through.
	Allow Decision = "ALLOW"
	// RedirectLogin sends an unauthenticated caller to the login surface.
	RedirectLogin Decision = "REDIRECT_LOGIN"
	// RedirectNotFound denies without admitting the surface exists.
	RedirectNotFound Decision = "REDIRECT_NOT_FOUND"
)

func (d Decision) String() string {
	return string(d)
}

// Surface describes the protection on the view being requested. A non-empty
// SlugToken marks the capability-gated admin surface and carries the token the
// caller presented.
type Surface struct {
	RequiresAdmin bool
	SlugToken     string
}

// Guard decides access to protected surfaces from the session alone.
type Guard struct {
	adminEmail string
}

// New constructs a guard bound to the configured administrator email.
func New(adminEmail string) (*Guard, error) {
	if adminEmail == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	return &Guard{adminEmail: adminEmail}, nil
}

// Decide is a pure access check. Anonymous callers are sent to login so the
// originally requested surface can be retried afterwards. Admin-only surfaces
// are hidden from authenticated non-admins: they see not-found, never a login
// prompt that would reveal the surface exists. The capability-gated surface
// additionally demands the exact token; any mismatch collapses to not-found
// so a wrong token is indistinguishable from a nonexistent route.
func (g *Guard) Decide(session auth.Session, surface Surface) Decision {
	if !session.IsAuthenticated() {
		return RedirectLogin
	}
	isAdmin := session.IsAdmin(g.adminEmail)
	if surface.RequiresAdmin && !isAdmin {
		return RedirectNotFound
	}
	if surface.SlugToken != "" {
		if !isAdmin || !security.TokensEqual(session.AdminSlug(), surface.SlugToken) {
			return RedirectNotFound
		}
	}
	return Allow
}
