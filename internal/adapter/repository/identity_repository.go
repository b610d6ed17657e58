package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// IdentityRepository handles member, contact and user lookups
type IdentityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// ListMembers returns every member of a project
func (r *IdentityRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectMember, error) {
	var members []*entities.ProjectMember
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListContacts returns every contact of a project
func (r *IdentityRepository) ListContacts(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectContact, error) {
	var contacts []*entities.ProjectContact
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// CreateContact adds a contact discovered during review
func (r *IdentityRepository) CreateContact(ctx context.Context, contact *entities.ProjectContact) error {
	if contact == nil {
		return errors.New("contact cannot be nil")
	}
	return r.db.WithContext(ctx).Create(contact).Error
}

// FindUserByID retrieves a user account
func (r *IdentityRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
