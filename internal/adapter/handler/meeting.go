package handler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	meetingdto "github.com/johnquangdev/meeting-scribe/internal/adapter/dto/meeting"
	reviewdto "github.com/johnquangdev/meeting-scribe/internal/adapter/dto/review"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/extraction"
)

// Meeting handles meeting ingestion and pipeline endpoints
type Meeting struct {
	meetingRepo   repositories.MeetingRepository
	changeSetRepo repositories.ChangeSetRepository
	extraction    extraction.Service
	logger        *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(
	meetingRepo repositories.MeetingRepository,
	changeSetRepo repositories.ChangeSetRepository,
	extractionService extraction.Service,
	logger *zap.Logger,
) *Meeting {
	return &Meeting{
		meetingRepo:   meetingRepo,
		changeSetRepo: changeSetRepo,
		extraction:    extractionService,
		logger:        logger,
	}
}

// Create registers a draft meeting with its transcript
// POST /v1/meetings
func (h *Meeting) Create(c echo.Context) error {
	var req meetingdto.CreateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument(err.Error()))
	}

	category := entities.MeetingCategory(req.Category)
	if !category.IsValid() {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("unknown meeting category"))
	}

	attendees := make([]entities.Attendee, len(req.Attendees))
	for i, a := range req.Attendees {
		attendees[i] = entities.Attendee{Name: a.Name, Email: a.Email}
	}
	roster, err := json.Marshal(attendees)
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInternal(err))
	}

	meeting := entities.NewMeeting(req.ProjectID, req.Title, category, req.OccurredAt, req.Transcript, datatypes.JSON(roster))
	if err := h.meetingRepo.Create(c.Request().Context(), meeting); err != nil {
		return handleError(c, h.logger, err)
	}

	return handleSuccess(c, h.logger, meetingdto.FromEntity(meeting))
}

// Get returns one meeting
// GET /v1/meetings/:id
func (h *Meeting) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid meeting id"))
	}

	meeting, err := h.meetingRepo.FindByID(c.Request().Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	if meeting == nil {
		return handleError(c, h.logger, apperrors.ErrMeetingNotFound(id.String()))
	}
	return handleSuccess(c, h.logger, meetingdto.FromEntity(meeting))
}

// List returns meetings for a project
// GET /v1/meetings?project_id=...
func (h *Meeting) List(c echo.Context) error {
	projectID, err := uuid.Parse(c.QueryParam("project_id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("project_id is required"))
	}

	meetings, err := h.meetingRepo.ListByProject(c.Request().Context(), projectID, 50, 0)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	responses := make([]*meetingdto.MeetingResponse, len(meetings))
	for i, m := range meetings {
		responses[i] = meetingdto.FromEntity(m)
	}
	return handleSuccess(c, h.logger, responses)
}

// Process starts the extraction pipeline for a meeting
// POST /v1/meetings/:id/process
func (h *Meeting) Process(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid meeting id"))
	}

	if err := h.extraction.ProcessMeeting(c.Request().Context(), id); err != nil {
		return handleError(c, h.logger, err)
	}

	return handleSuccess(c, h.logger, map[string]interface{}{
		"meeting_id": id,
		"status":     entities.MeetingStatusProcessing,
	})
}

// GetChangeSet returns the active change set for a meeting
// GET /v1/meetings/:id/changeset
func (h *Meeting) GetChangeSet(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInvalidArgument("invalid meeting id"))
	}

	cs, err := h.changeSetRepo.FindActiveByMeetingID(c.Request().Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	if cs == nil {
		return handleError(c, h.logger, apperrors.ErrChangeSetNotFound(id.String()))
	}

	items, err := cs.Items()
	if err != nil {
		return handleError(c, h.logger, apperrors.ErrInternal(err))
	}
	return handleSuccess(c, h.logger, reviewdto.FromEntity(cs, items))
}
