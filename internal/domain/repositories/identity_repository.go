package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// IdentityRepository defines the interface for owner resolution lookups
type IdentityRepository interface {
	// ListMembers returns every member of a project
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectMember, error)

	// ListContacts returns every contact of a project
	ListContacts(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectContact, error)

	// CreateContact adds a contact discovered during review
	CreateContact(ctx context.Context, contact *entities.ProjectContact) error

	// FindUserByID finds a user account
	FindUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}
