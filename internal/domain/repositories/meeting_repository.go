package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create creates a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID finds a meeting by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// ListByProject returns meetings for a project, newest first
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*entities.Meeting, error)

	// ClaimForProcessing atomically transitions a meeting from draft or
	// failed into processing. Returns false when another worker claimed it
	// first or the meeting is in a non-processable state.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdateStatus sets the meeting status
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) error

	// MarkReview records a successful extraction
	MarkReview(ctx context.Context, id uuid.UUID) error

	// MarkPublished records a successful publish
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a fatal pipeline failure with its reason
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// SetTranscriptURI records the object storage key of the archived transcript
	SetTranscriptURI(ctx context.Context, id uuid.UUID, uri string) error

	// FindStuckProcessing returns meetings that have been in processing
	// longer than the cutoff, for zombie recovery
	FindStuckProcessing(ctx context.Context, before time.Time) ([]*entities.Meeting, error)
}
