package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/pkg/jwt"
)

const (
	// ContextUserID is the echo context key for the authenticated user ID
	ContextUserID = "user_id"
	// ContextUserEmail is the echo context key for the authenticated email
	ContextUserEmail = "user_email"
	// ContextUserRole is the echo context key for the authenticated role
	ContextUserRole = "user_role"
)

// AuthMiddleware validates bearer tokens and stashes the identity on the
// echo context.
type AuthMiddleware struct {
	jwtManager *jwt.Manager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// Authenticate validates the JWT token and adds the identity to the context
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		if token == "" {
			return echo.NewHTTPError(401, "missing authorization token")
		}

		claims, err := m.jwtManager.ValidateAccessToken(token)
		if err != nil {
			return echo.NewHTTPError(401, "invalid or expired token")
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserRole, claims.Role)
		return next(c)
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get(ContextUserRole).(string)
		if role != "admin" {
			return echo.NewHTTPError(403, "admin role required")
		}
		return next(c)
	}
}

// UserID returns the authenticated user ID from the echo context.
func UserID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(ContextUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, apperrors.ErrUnauthenticated()
	}
	return id, nil
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
