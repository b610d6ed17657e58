package entities

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus is the lifecycle of a published record.
type RecordStatus string

const (
	RecordStatusOpen   RecordStatus = "open"
	RecordStatusClosed RecordStatus = "closed"
)

// ActionItemRecord is a published action item, the live system of record.
type ActionItemRecord struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProjectID   uuid.UUID    `json:"project_id" gorm:"type:uuid;not null;index"`
	MeetingID   uuid.UUID    `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Title       string       `json:"title" gorm:"type:varchar(500);not null"`
	Description string       `json:"description" gorm:"type:text"`
	Status      RecordStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'open'"`

	OwnerUserID    *uuid.UUID `json:"owner_user_id,omitempty" gorm:"type:uuid;index"`
	OwnerContactID *uuid.UUID `json:"owner_contact_id,omitempty" gorm:"type:uuid;index"`
	OwnerName      string     `json:"owner_name,omitempty" gorm:"type:varchar(255)"`

	DueDate  *time.Time `json:"due_date,omitempty" gorm:"type:date"`
	Priority string     `json:"priority,omitempty" gorm:"type:varchar(20)"`

	ClosedAt  *time.Time `json:"closed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ActionItemRecord) TableName() string {
	return "action_item_records"
}

// DecisionRecord is a published decision.
type DecisionRecord struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProjectID   uuid.UUID    `json:"project_id" gorm:"type:uuid;not null;index"`
	MeetingID   uuid.UUID    `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Title       string       `json:"title" gorm:"type:varchar(500);not null"`
	Description string       `json:"description" gorm:"type:text"`
	Outcome     string       `json:"outcome,omitempty" gorm:"type:varchar(20)"`
	Status      RecordStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'open'"`

	OwnerUserID    *uuid.UUID `json:"owner_user_id,omitempty" gorm:"type:uuid;index"`
	OwnerContactID *uuid.UUID `json:"owner_contact_id,omitempty" gorm:"type:uuid;index"`
	OwnerName      string     `json:"owner_name,omitempty" gorm:"type:varchar(255)"`

	ClosedAt  *time.Time `json:"closed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (DecisionRecord) TableName() string {
	return "decision_records"
}

// RiskRecord is a published risk.
type RiskRecord struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProjectID   uuid.UUID    `json:"project_id" gorm:"type:uuid;not null;index"`
	MeetingID   uuid.UUID    `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Title       string       `json:"title" gorm:"type:varchar(500);not null"`
	Description string       `json:"description" gorm:"type:text"`
	Severity    string       `json:"severity,omitempty" gorm:"type:varchar(20)"`
	Likelihood  string       `json:"likelihood,omitempty" gorm:"type:varchar(20)"`
	Mitigation  string       `json:"mitigation,omitempty" gorm:"type:text"`
	Status      RecordStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'open'"`

	OwnerUserID    *uuid.UUID `json:"owner_user_id,omitempty" gorm:"type:uuid;index"`
	OwnerContactID *uuid.UUID `json:"owner_contact_id,omitempty" gorm:"type:uuid;index"`
	OwnerName      string     `json:"owner_name,omitempty" gorm:"type:varchar(255)"`

	ClosedAt  *time.Time `json:"closed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RiskRecord) TableName() string {
	return "risk_records"
}

// OpenItem is the compact view of an open record fed into prompts so the
// model can propose update/close operations against existing work.
type OpenItem struct {
	ID          uuid.UUID `json:"id"`
	Kind        ItemKind  `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerName   string    `json:"owner_name,omitempty"`
	Status      string    `json:"status"`
}

// SimilarRecord is one hit from a vector similarity search.
type SimilarRecord struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Similarity float64   `json:"similarity"`
}
