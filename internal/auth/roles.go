package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meeting-service/internal/domain"
	apperrors "github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

// RequireRole ensures the authenticated user holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireManager is RequireRole(domain.RoleManager).
func RequireManager() fiber.Handler {
	return RequireRole(domain.RoleManager)
}
