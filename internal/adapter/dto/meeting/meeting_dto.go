package meeting

import (
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// AttendeeDTO is one roster entry in a create request.
type AttendeeDTO struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// CreateMeetingRequest creates a draft meeting with its transcript.
type CreateMeetingRequest struct {
	ProjectID  uuid.UUID     `json:"project_id" validate:"required"`
	Title      string        `json:"title" validate:"required,max=255"`
	Category   string        `json:"category" validate:"required,oneof=project governance discovery alignment remediation"`
	OccurredAt time.Time     `json:"occurred_at" validate:"required"`
	Transcript string        `json:"transcript" validate:"required"`
	Attendees  []AttendeeDTO `json:"attendees" validate:"dive"`
}

// MeetingResponse is the API view of a meeting.
type MeetingResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProjectID     uuid.UUID  `json:"project_id"`
	Title         string     `json:"title"`
	Category      string     `json:"category"`
	Status        string     `json:"status"`
	OccurredAt    time.Time  `json:"occurred_at"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FromEntity maps a meeting entity to its response shape.
func FromEntity(m *entities.Meeting) *MeetingResponse {
	return &MeetingResponse{
		ID:            m.ID,
		ProjectID:     m.ProjectID,
		Title:         m.Title,
		Category:      string(m.Category),
		Status:        string(m.Status),
		OccurredAt:    m.OccurredAt,
		FailureReason: m.FailureReason,
		ProcessedAt:   m.ProcessedAt,
		PublishedAt:   m.PublishedAt,
		CreatedAt:     m.CreatedAt,
	}
}
