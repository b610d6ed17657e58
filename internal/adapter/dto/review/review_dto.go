package review

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// LockRequest acquires or refreshes the review lock.
type LockRequest struct {
	ExpectedVersion int64 `json:"expected_version" validate:"min=0"`
}

// LockResponse reports the lock state after an acquire.
type LockResponse struct {
	LockVersion    int64      `json:"lock_version"`
	LockedByUserID *uuid.UUID `json:"locked_by_user_id,omitempty"`
}

// SaveItemsRequest replaces the proposed items under the lock.
type SaveItemsRequest struct {
	ExpectedVersion int64                   `json:"expected_version" validate:"min=0"`
	Items           []entities.ProposedItem `json:"items" validate:"required"`
}

// ReassignOwnerRequest reassigns the owner on one item and every item
// sharing its mention name.
type ReassignOwnerRequest struct {
	ExpectedVersion int64  `json:"expected_version" validate:"min=0"`
	TempID          string `json:"temp_id" validate:"required"`
	OwnerName       string `json:"owner_name" validate:"required"`
	OwnerEmail      string `json:"owner_email,omitempty" validate:"omitempty,email"`
	CreateContact   bool   `json:"create_contact"`
}

// PublishRequest publishes the accepted items.
type PublishRequest struct {
	ExpectedVersion int64 `json:"expected_version" validate:"min=0"`
}

// ChangeSetResponse is the API view of a change set.
type ChangeSetResponse struct {
	ID             uuid.UUID               `json:"id"`
	MeetingID      uuid.UUID               `json:"meeting_id"`
	SchemaVersion  string                  `json:"schema_version"`
	Recap          json.RawMessage         `json:"recap,omitempty"`
	Tone           json.RawMessage         `json:"tone,omitempty"`
	Fishbone       json.RawMessage         `json:"fishbone,omitempty"`
	Items          []entities.ProposedItem `json:"items"`
	LockVersion    int64                   `json:"lock_version"`
	LockedByUserID *uuid.UUID              `json:"locked_by_user_id,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// FromEntity maps a change set and its decoded items to the response shape.
func FromEntity(cs *entities.ProposedChangeSet, items []entities.ProposedItem) *ChangeSetResponse {
	return &ChangeSetResponse{
		ID:             cs.ID,
		MeetingID:      cs.MeetingID,
		SchemaVersion:  cs.SchemaVersion,
		Recap:          json.RawMessage(cs.Recap),
		Tone:           json.RawMessage(cs.Tone),
		Fishbone:       json.RawMessage(cs.Fishbone),
		Items:          items,
		LockVersion:    cs.LockVersion,
		LockedByUserID: cs.LockedByUserID,
		CreatedAt:      cs.CreatedAt,
	}
}
