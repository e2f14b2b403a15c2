package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payment-portal/internal/domain"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// RequireRole permits only principals whose role is in the allowed set. Roles are
// not hierarchical: an endpoint shared by employees and admins lists both.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewNotAuthenticated()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated permits any authenticated principal regardless of role.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewNotAuthenticated()
		}
		return c.Next()
	}
}
