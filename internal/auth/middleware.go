package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/session"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller for the lifetime of one request.
type Principal struct {
	Kind      domain.PrincipalKind
	ID        string
	Role      domain.Role
	FullName  string
	SessionID string
}

// SessionMiddleware authenticates requests by their session cookie.
type SessionMiddleware struct {
	sessions     *session.Manager
	cookieName   string
	cookieSecure bool
}

// NewSessionMiddleware constructs middleware around the session manager.
func NewSessionMiddleware(sessions *session.Manager, cookieName string, cookieSecure bool) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName, cookieSecure: cookieSecure}
}

// Handle enforces authentication for protected routes. Expired sessions are
// destroyed before the failure is reported. The cookie is cleared only when the
// session is conclusively dead, not on transient store failures.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	id := c.Cookies(m.cookieName)
	if id == "" {
		return apperrors.NewNotAuthenticated()
	}

	rec, err := m.sessions.Validate(c.UserContext(), id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			m.ClearCookie(c)
			return apperrors.NewSessionTimeout()
		case errors.Is(err, session.ErrNotAuthenticated):
			m.ClearCookie(c)
			return apperrors.NewNotAuthenticated()
		default:
			// a transient store failure is not a verdict on the session; keep the
			// cookie so the client can retry
			return apperrors.MapError(err)
		}
	}

	c.Locals(principalKey, &Principal{
		Kind:      rec.User.Kind,
		ID:        rec.User.PrincipalID,
		Role:      rec.User.Role,
		FullName:  rec.User.FullName,
		SessionID: rec.ID,
	})
	return c.Next()
}

// SetCookie writes the session cookie for a freshly established session.
func (m *SessionMiddleware) SetCookie(c *fiber.Ctx, sessionID string) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    sessionID,
		HTTPOnly: true,
		Secure:   m.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(m.sessions.AbsoluteTimeout() / time.Second),
	})
}

// ClearCookie expires the session cookie on the client.
func (m *SessionMiddleware) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   m.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// CookieName exposes the configured cookie name for handlers.
func (m *SessionMiddleware) CookieName() string {
	return m.cookieName
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
