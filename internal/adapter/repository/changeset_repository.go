package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// ChangeSetRepository handles proposed change set persistence and the
// optimistic review lock.
type ChangeSetRepository struct {
	db *gorm.DB
}

// NewChangeSetRepository creates a new change set repository
func NewChangeSetRepository(db *gorm.DB) *ChangeSetRepository {
	return &ChangeSetRepository{db: db}
}

// Create creates a new change set
func (r *ChangeSetRepository) Create(ctx context.Context, cs *entities.ProposedChangeSet) error {
	if cs == nil {
		return errors.New("change set cannot be nil")
	}
	return r.db.WithContext(ctx).Create(cs).Error
}

// FindByID retrieves a change set by ID
func (r *ChangeSetRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ProposedChangeSet, error) {
	var cs entities.ProposedChangeSet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cs, nil
}

// FindActiveByMeetingID retrieves the non-retired change set for a meeting
func (r *ChangeSetRepository) FindActiveByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.ProposedChangeSet, error) {
	var cs entities.ProposedChangeSet
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND retired_at IS NULL", meetingID).
		First(&cs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cs, nil
}

// AcquireLock takes the review lock with one compare-and-swap UPDATE. The
// row must still be at the expected version and either unlocked or already
// held by the same user. The version bumps on every successful acquire so
// an evicted holder's stale version can never pass a later check.
func (r *ChangeSetRepository) AcquireLock(ctx context.Context, id uuid.UUID, userID uuid.UUID, expectedVersion int64) (int64, bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entities.ProposedChangeSet{}).
		Where("id = ? AND retired_at IS NULL AND lock_version = ? AND (locked_by_user_id IS NULL OR locked_by_user_id = ?)",
			id, expectedVersion, userID).
		Updates(map[string]interface{}{
			"locked_by_user_id": userID,
			"locked_at":         now,
			"lock_version":      gorm.Expr("lock_version + 1"),
			"updated_at":        now,
		})
	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return expectedVersion + 1, true, nil
}

// ReleaseLock clears the lock when held by the given user
func (r *ChangeSetRepository) ReleaseLock(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.ProposedChangeSet{}).
		Where("id = ? AND locked_by_user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"locked_by_user_id": nil,
			"locked_at":         nil,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ForceUnlock clears the lock unconditionally, bumping the version so the
// evicted holder's next compare-and-swap loses.
func (r *ChangeSetRepository) ForceUnlock(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.ProposedChangeSet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"locked_by_user_id": nil,
			"locked_at":         nil,
			"lock_version":      gorm.Expr("lock_version + 1"),
			"updated_at":        time.Now(),
		}).Error
}

// ReplaceItems overwrites the proposed items behind the same
// compare-and-swap guard as AcquireLock, requiring the caller to hold the
// lock.
func (r *ChangeSetRepository) ReplaceItems(ctx context.Context, id uuid.UUID, userID uuid.UUID, expectedVersion int64, items []entities.ProposedItem) (int64, bool, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return 0, false, err
	}

	result := r.db.WithContext(ctx).
		Model(&entities.ProposedChangeSet{}).
		Where("id = ? AND retired_at IS NULL AND locked_by_user_id = ? AND lock_version = ?",
			id, userID, expectedVersion).
		Updates(map[string]interface{}{
			"proposed_items": payload,
			"lock_version":   gorm.Expr("lock_version + 1"),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return expectedVersion + 1, true, nil
}

// Retire marks a change set retired after publish
func (r *ChangeSetRepository) Retire(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.ProposedChangeSet{}).
		Where("id = ? AND retired_at IS NULL", id).
		Updates(map[string]interface{}{
			"retired_at": now,
			"updated_at": now,
		}).Error
}

// RetireByMeetingID retires any active change set for a meeting
func (r *ChangeSetRepository) RetireByMeetingID(ctx context.Context, meetingID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.ProposedChangeSet{}).
		Where("meeting_id = ? AND retired_at IS NULL", meetingID).
		Updates(map[string]interface{}{
			"retired_at": now,
			"updated_at": now,
		}).Error
}
