package middleware

import (
	"errors"
	"strings"

	"edvisa-admin/internal/config"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/pkg/jwt"
	"edvisa-admin/internal/pkg/metrics"
	"edvisa-admin/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys
const (
	principalKey = "principal"
	resultKey    = "authzResult"
)

// AuthMiddleware creates authentication middleware. The token's claims
// become the request Principal; nothing is read from the database.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Try Authorization header first, then cookie
		var accessToken string
		if authHeader := c.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			accessToken = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if accessToken == "" {
			accessToken = c.Cookies("access_token")
		}

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		principal, err := claims.Principal()
		if err != nil {
			return response.Unauthorized(c, "Invalid access token")
		}

		// 3. Set principal in context
		c.Locals(principalKey, principal)
		c.Locals("userID", principal.SubjectID)
		c.Locals("role", string(principal.Role))

		return c.Next()
	}
}

// PrincipalFrom returns the Principal set by AuthMiddleware
func PrincipalFrom(c *fiber.Ctx) (domain.Principal, bool) {
	p, ok := c.Locals(principalKey).(domain.Principal)
	return p, ok
}

// RequirePermissions rejects callers holding none of req's permissions.
// A scoped-only match passes through with a NeedsOwnership result that
// the handler must finish against the loaded resource.
func RequirePermissions(req authz.Requirement, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		result := authz.Evaluate(principal.Permissions, req)
		m.ObserveDecision(c.Method()+" "+c.Route().Path, result.Decision.String())

		if result.Decision == authz.Deny {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}

		c.Locals(resultKey, result)
		return c.Next()
	}
}

// ResultFrom returns the decision stored by RequirePermissions. Without
// one the request is treated as denied.
func ResultFrom(c *fiber.Ctx) authz.Result {
	if r, ok := c.Locals(resultKey).(authz.Result); ok {
		return r
	}
	return authz.Result{Decision: authz.Deny}
}
