package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roster-service/internal/domain"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Callers are platform
// operators identified by token claims; no local account record exists.
type Principal struct {
	SubjectID string
	Role      domain.CallerRole
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens         *TokenManager
	schedulerToken string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, schedulerToken string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, schedulerToken: schedulerToken}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{SubjectID: claims.SubjectID, Role: claims.Role})
	return c.Next()
}

// HandleScheduler guards the internal batch-callback route with the static
// scheduler token.
func (m *AuthMiddleware) HandleScheduler(c *fiber.Ctx) error {
	if m.schedulerToken == "" {
		return apperrors.NewForbidden("scheduler callbacks disabled")
	}
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(m.schedulerToken)) != 1 {
		return apperrors.NewUnauthorized("invalid scheduler token")
	}
	return c.Next()
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

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}
