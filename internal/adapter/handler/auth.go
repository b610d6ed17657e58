package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	authdto "github.com/johnquangdev/meeting-scribe/internal/adapter/dto/auth"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/pkg/jwt"
)

// Auth handles token endpoints. Login and first-token issuance live in the
// identity service, which signs refresh tokens with the shared refresh
// secret; this handler rotates tokens for sessions already established.
type Auth struct {
	jwtManager   *jwt.Manager
	identityRepo repositories.IdentityRepository
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtManager *jwt.Manager, identityRepo repositories.IdentityRepository, logger *zap.Logger) *Auth {
	return &Auth{
		jwtManager:   jwtManager,
		identityRepo: identityRepo,
		logger:       logger,
	}
}

// Refresh exchanges a valid refresh token for a new token pair
// POST /v1/auth/refresh
func (h *Auth) Refresh(c echo.Context) error {
	var req authdto.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument(err.Error()))
	}

	userID, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidToken())
	}

	// The account may have been removed since the token was issued.
	user, err := h.identityRepo.FindUserByID(c.Request().Context(), userID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	if user == nil {
		return handleError(c, h.logger, apperrors.ErrInvalidToken())
	}

	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInternal(err))
	}
	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInternal(err))
	}

	return handleSuccess(c, h.logger, authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.jwtManager.GetAccessExpiry().Seconds()),
	})
}
