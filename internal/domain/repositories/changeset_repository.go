package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// ChangeSetRepository defines the interface for proposed change set access,
// including the optimistic review lock.
type ChangeSetRepository interface {
	// Create creates a new change set
	Create(ctx context.Context, cs *entities.ProposedChangeSet) error

	// FindByID finds a change set by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ProposedChangeSet, error)

	// FindActiveByMeetingID finds the non-retired change set for a meeting
	FindActiveByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.ProposedChangeSet, error)

	// AcquireLock atomically takes the review lock when it is free or
	// already held by the same user, and the caller presents the version
	// it last read. Returns the new lock version on success, false when
	// the compare-and-swap lost.
	AcquireLock(ctx context.Context, id uuid.UUID, userID uuid.UUID, expectedVersion int64) (int64, bool, error)

	// ReleaseLock clears the lock if held by the given user. Returns
	// false when the user does not hold it.
	ReleaseLock(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error)

	// ForceUnlock clears the lock unconditionally, bumping the version so
	// the evicted holder's next write fails its version check.
	ForceUnlock(ctx context.Context, id uuid.UUID) error

	// ReplaceItems overwrites the proposed items if the given user holds
	// the lock at the expected version. Returns the new version on
	// success, false when the compare-and-swap lost.
	ReplaceItems(ctx context.Context, id uuid.UUID, userID uuid.UUID, expectedVersion int64, items []entities.ProposedItem) (int64, bool, error)

	// Retire marks the change set retired after publish
	Retire(ctx context.Context, id uuid.UUID) error

	// RetireByMeetingID retires any active change set for a meeting,
	// used before reprocessing a failed meeting
	RetireByMeetingID(ctx context.Context, meetingID uuid.UUID) error
}
