package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OwnerResolutionStatus classifies how an owner mention was resolved.
type OwnerResolutionStatus string

const (
	OwnerResolved          OwnerResolutionStatus = "resolved"           // unique member or contact match
	OwnerNeedsConfirmation OwnerResolutionStatus = "needs_confirmation" // fuzzy match, reviewer must confirm
	OwnerAmbiguous         OwnerResolutionStatus = "ambiguous"          // multiple equally good matches
	OwnerConferenceRoom    OwnerResolutionStatus = "conference_room"    // a room, not a person
	OwnerUnknown           OwnerResolutionStatus = "unknown"            // no match anywhere
	OwnerPlaceholder       OwnerResolutionStatus = "placeholder"        // no owner mentioned at all
)

// BlocksPublish reports whether items with this status block publishing
// when accepted. Unknown and placeholder owners pass through; a reviewer
// accepted them knowingly. Ambiguous and room assignments never publish.
func (s OwnerResolutionStatus) BlocksPublish() bool {
	return s == OwnerAmbiguous || s == OwnerConferenceRoom
}

// ItemKind distinguishes the record type a proposed item maps to.
type ItemKind string

const (
	KindActionItem ItemKind = "action_item"
	KindDecision   ItemKind = "decision"
	KindRisk       ItemKind = "risk"
)

// ProposedOwner is an owner mention plus its resolution result.
type ProposedOwner struct {
	Name              string                `json:"name"`
	Email             string                `json:"email,omitempty"`
	ResolvedUserID    *uuid.UUID            `json:"resolved_user_id,omitempty"`
	ResolvedContactID *uuid.UUID            `json:"resolved_contact_id,omitempty"`
	ResolutionStatus  OwnerResolutionStatus `json:"resolution_status"`
	Candidates        []string              `json:"candidates,omitempty"` // names shown for ambiguous matches
}

// ProposedItem is one reviewable extracted item inside a change set.
type ProposedItem struct {
	TempID    string        `json:"temp_id"`
	Kind      ItemKind      `json:"kind"`
	Operation ItemOperation `json:"operation"`
	TargetID  *uuid.UUID    `json:"target_id,omitempty"`

	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Owner       ProposedOwner `json:"owner"`
	Accepted    bool          `json:"accepted"`

	DuplicateOf     *uuid.UUID      `json:"duplicate_of,omitempty"`
	SimilarityScore *float64        `json:"similarity_score,omitempty"`
	SimilarRecords  []SimilarRecord `json:"similar_records,omitempty"`

	// Kind-specific fields.
	DueDate        *string  `json:"due_date,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	Severity       string   `json:"severity,omitempty"`
	Likelihood     string   `json:"likelihood,omitempty"`
	Mitigation     string   `json:"mitigation,omitempty"`
	EvidenceQuotes []string `json:"evidence_quotes,omitempty"`
}

// ProposedChangeSet holds every extracted item for one meeting while a
// reviewer edits it. Lock fields implement the optimistic review lock:
// LockVersion only ever increases, and every mutation must present the
// version it read.
type ProposedChangeSet struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID     uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex:idx_changeset_meeting_active,where:retired_at IS NULL"`
	SchemaVersion string    `json:"schema_version" gorm:"type:varchar(20);not null"`

	Recap         datatypes.JSON `json:"recap" gorm:"type:jsonb"`
	Tone          datatypes.JSON `json:"tone,omitempty" gorm:"type:jsonb"`
	Fishbone      datatypes.JSON `json:"fishbone,omitempty" gorm:"type:jsonb"`
	ProposedItems datatypes.JSON `json:"proposed_items" gorm:"type:jsonb;not null"`

	LockVersion    int64      `json:"lock_version" gorm:"not null;default:0"`
	LockedByUserID *uuid.UUID `json:"locked_by_user_id,omitempty" gorm:"type:uuid;index"`
	LockedAt       *time.Time `json:"locked_at,omitempty" gorm:"type:timestamp"`

	RetiredAt *time.Time `json:"retired_at,omitempty" gorm:"type:timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Items decodes the proposed items payload.
func (cs *ProposedChangeSet) Items() ([]ProposedItem, error) {
	if len(cs.ProposedItems) == 0 {
		return nil, nil
	}
	var items []ProposedItem
	if err := json.Unmarshal(cs.ProposedItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetItems encodes and replaces the proposed items payload.
func (cs *ProposedChangeSet) SetItems(items []ProposedItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	cs.ProposedItems = datatypes.JSON(b)
	return nil
}

// IsLocked reports whether some reviewer currently holds the lock.
func (cs *ProposedChangeSet) IsLocked() bool {
	return cs.LockedByUserID != nil
}

// IsLockedBy reports whether the given user holds the lock.
func (cs *ProposedChangeSet) IsLockedBy(userID uuid.UUID) bool {
	return cs.LockedByUserID != nil && *cs.LockedByUserID == userID
}

// TableName specifies the table name for GORM
func (ProposedChangeSet) TableName() string {
	return "proposed_change_sets"
}
