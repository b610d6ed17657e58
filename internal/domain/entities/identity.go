package entities

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account that can review and publish.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         string    `json:"role" gorm:"type:varchar(50);not null;default:'member'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user may perform admin operations.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// ProjectMember links a user to a project. Members are the first tier of
// owner resolution.
type ProjectMember struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index:idx_member_project"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

// ProjectContact is an external person known to a project, the second
// tier of owner resolution. Contacts can be created during review when a
// reviewer reassigns an item to someone not yet known.
type ProjectContact struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index:idx_contact_project"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ProjectContact) TableName() string {
	return "project_contacts"
}
