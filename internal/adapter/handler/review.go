package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	reviewdto "github.com/johnquangdev/meeting-scribe/internal/adapter/dto/review"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/review"
)

// Review handles change set review endpoints
type Review struct {
	service review.Service
	logger  *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service review.Service, logger *zap.Logger) *Review {
	return &Review{
		service: service,
		logger:  logger,
	}
}

// Get returns a change set with its items
// GET /v1/changesets/:id
func (h *Review) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid change set id"))
	}

	cs, items, err := h.service.GetChangeSet(c.Request().Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return handleSuccess(c, h.logger, reviewdto.FromEntity(cs, items))
}

// AcquireLock takes the review lock
// POST /v1/changesets/:id/lock
func (h *Review) AcquireLock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid change set id"))
	}
	userID, err := middleware.UserID(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var req reviewdto.LockRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidPayload())
	}

	version, err := h.service.AcquireLock(c.Request().Context(), id, userID, req.ExpectedVersion)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return handleSuccess(c, h.logger, reviewdto.LockResponse{
		LockVersion:    version,
		LockedByUserID: &userID,
	})
}

// ReleaseLock releases the review lock
// DELETE /v1/changesets/:id/lock
func (h *Review) ReleaseLock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid change set id"))
	}
	userID, err := middleware.UserID(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if err := h.service.ReleaseLock(c.Request().Context(), id, userID); err != nil {
		return handleError(c, h.logger, err)
	}
	return handleSuccess(c, h.logger, nil)
}

// ForceUnlock clears the lock regardless of holder. Admin gated in the
// router.
// POST /v1/changesets/:id/force-unlock
func (h *Review) ForceUnlock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid change set id"))
	}

	if err := h.service.ForceUnlock(c.Request().Context(), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return handleSuccess(c, h.logger, nil)
}

// SaveItems replaces the proposed items under the lock
// PUT /v1/changesets/:id/items
func (h *Review) SaveItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid change set id"))
	}
	userID, err := middleware.UserID(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var req reviewdto.SaveItemsRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument(err.Error()))
	}

	version, err := h.service.SaveItems(c.Request().Context(), id, userID, req.ExpectedVersion, req.Items)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return handleSuccess(c, h.logger, reviewdto.LockResponse{
		LockVersion:    version,
		LockedByUserID: &userID,
	})
}

// ReassignOwner reassigns an owner across items sharing the mention name
// POST /v1/changesets/:id/reassign-owner
func (h *Review) ReassignOwner(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid change set id"))
	}
	userID, err := middleware.UserID(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var req reviewdto.ReassignOwnerRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument(err.Error()))
	}

	version, err := h.service.ReassignOwner(c.Request().Context(), review.ReassignRequest{
		ChangeSetID:     id,
		UserID:          userID,
		ExpectedVersion: req.ExpectedVersion,
		TempID:          req.TempID,
		NewOwnerName:    req.OwnerName,
		NewOwnerEmail:   req.OwnerEmail,
		CreateContact:   req.CreateContact,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return handleSuccess(c, h.logger, reviewdto.LockResponse{
		LockVersion:    version,
		LockedByUserID: &userID,
	})
}

// Publish applies accepted items to the live records
// POST /v1/changesets/:id/publish
func (h *Review) Publish(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid change set id"))
	}
	userID, err := middleware.UserID(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	var req reviewdto.PublishRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidPayload())
	}

	if err := h.service.Publish(c.Request().Context(), id, userID, req.ExpectedVersion); err != nil {
		return handleError(c, h.logger, err)
	}
	return handleSuccess(c, h.logger, map[string]string{"status": "published"})
}
