package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingCategory steers prompt emphasis and schema requirements.
type MeetingCategory string

const (
	CategoryProject     MeetingCategory = "project"     // status updates, action items
	CategoryGovernance  MeetingCategory = "governance"  // formal decisions with outcomes
	CategoryDiscovery   MeetingCategory = "discovery"   // findings and risks
	CategoryAlignment   MeetingCategory = "alignment"   // cross-team tone and agreements
	CategoryRemediation MeetingCategory = "remediation" // incident follow-up, fishbone analysis
)

// ValidCategories lists every accepted meeting category.
var ValidCategories = []MeetingCategory{
	CategoryProject,
	CategoryGovernance,
	CategoryDiscovery,
	CategoryAlignment,
	CategoryRemediation,
}

// IsValid reports whether the category is one of the known values.
func (c MeetingCategory) IsValid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// MeetingStatus tracks the processing lifecycle of a meeting.
type MeetingStatus string

const (
	MeetingStatusDraft      MeetingStatus = "draft"      // transcript attached, not yet processed
	MeetingStatusProcessing MeetingStatus = "processing" // extraction pipeline running
	MeetingStatusReview     MeetingStatus = "review"     // change set awaiting human review
	MeetingStatusPublished  MeetingStatus = "published"  // accepted items written to records
	MeetingStatusFailed     MeetingStatus = "failed"     // pipeline failed, retriable from draft
)

// Attendee is one person on the meeting roster.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Meeting is a transcript submitted for structured extraction.
type Meeting struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProjectID  uuid.UUID       `json:"project_id" gorm:"type:uuid;not null;index"`
	Title      string          `json:"title" gorm:"type:varchar(255);not null"`
	Category   MeetingCategory `json:"category" gorm:"type:varchar(50);not null;index"`
	Status     MeetingStatus   `json:"status" gorm:"type:varchar(50);not null;index;default:'draft'"`
	OccurredAt time.Time       `json:"occurred_at" gorm:"type:timestamp;not null"`

	Transcript    string         `json:"transcript,omitempty" gorm:"type:text"`
	TranscriptURI *string        `json:"transcript_uri,omitempty" gorm:"type:text"` // object storage key after archival
	Attendees     datatypes.JSON `json:"attendees" gorm:"type:jsonb"`

	FailureReason *string    `json:"failure_reason,omitempty" gorm:"type:text"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty" gorm:"type:timestamp"`
	PublishedAt   *time.Time `json:"published_at,omitempty" gorm:"type:timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewMeeting creates a draft meeting.
func NewMeeting(projectID uuid.UUID, title string, category MeetingCategory, occurredAt time.Time, transcript string, attendees datatypes.JSON) *Meeting {
	return &Meeting{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Title:      title,
		Category:   category,
		Status:     MeetingStatusDraft,
		OccurredAt: occurredAt,
		Transcript: transcript,
		Attendees:  attendees,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// CanProcess reports whether the meeting may enter the extraction pipeline.
// Failed meetings are retriable from scratch.
func (m *Meeting) CanProcess() bool {
	return m.Status == MeetingStatusDraft || m.Status == MeetingStatusFailed
}

// MarkProcessing transitions the meeting into the pipeline.
func (m *Meeting) MarkProcessing() {
	m.Status = MeetingStatusProcessing
	m.FailureReason = nil
	m.UpdatedAt = time.Now()
}

// MarkReview records a successful extraction awaiting human review.
func (m *Meeting) MarkReview() {
	m.Status = MeetingStatusReview
	now := time.Now()
	m.ProcessedAt = &now
	m.UpdatedAt = now
}

// MarkPublished records that accepted items were written to the live records.
func (m *Meeting) MarkPublished() {
	m.Status = MeetingStatusPublished
	now := time.Now()
	m.PublishedAt = &now
	m.UpdatedAt = now
}

// MarkFailed records a fatal pipeline error.
func (m *Meeting) MarkFailed(reason string) {
	m.Status = MeetingStatusFailed
	m.FailureReason = &reason
	m.UpdatedAt = time.Now()
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}
