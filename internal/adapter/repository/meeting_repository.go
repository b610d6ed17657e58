package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// MeetingRepository handles meeting data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create creates a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindByID retrieves a meeting by ID
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// ListByProject retrieves meetings for a project, newest first
func (r *MeetingRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*entities.Meeting, error) {
	if limit <= 0 {
		limit = 50
	}
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("occurred_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// ClaimForProcessing atomically moves a draft or failed meeting into
// processing. Only one caller wins when several race on the same meeting.
func (r *MeetingRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status IN ?", id, []entities.MeetingStatus{
			entities.MeetingStatusDraft,
			entities.MeetingStatusFailed,
		}).
		Updates(map[string]interface{}{
			"status":         entities.MeetingStatusProcessing,
			"failure_reason": nil,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateStatus sets the meeting status
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// MarkReview records a successful extraction
func (r *MeetingRepository) MarkReview(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       entities.MeetingStatusReview,
			"processed_at": now,
			"updated_at":   now,
		}).Error
}

// MarkPublished records a successful publish
func (r *MeetingRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       entities.MeetingStatusPublished,
			"published_at": now,
			"updated_at":   now,
		}).Error
}

// MarkFailed records a fatal pipeline failure
func (r *MeetingRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         entities.MeetingStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		}).Error
}

// SetTranscriptURI records the archived transcript location
func (r *MeetingRepository) SetTranscriptURI(ctx context.Context, id uuid.UUID, uri string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Update("transcript_uri", uri).Error
}

// FindStuckProcessing returns meetings stuck in processing since before
// the cutoff
func (r *MeetingRepository) FindStuckProcessing(ctx context.Context, before time.Time) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", entities.MeetingStatusProcessing, before).
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}
