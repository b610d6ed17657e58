package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// PublishBatch carries every record mutation from one accepted change set,
// applied in a single transaction.
type PublishBatch struct {
	CreateActionItems []*entities.ActionItemRecord
	UpdateActionItems []*entities.ActionItemRecord
	CloseActionItems  []uuid.UUID

	CreateDecisions []*entities.DecisionRecord
	UpdateDecisions []*entities.DecisionRecord
	CloseDecisions  []uuid.UUID

	CreateRisks []*entities.RiskRecord
	UpdateRisks []*entities.RiskRecord
	CloseRisks  []uuid.UUID
}

// Empty reports whether the batch contains no mutations.
func (b *PublishBatch) Empty() bool {
	return len(b.CreateActionItems)+len(b.UpdateActionItems)+len(b.CloseActionItems)+
		len(b.CreateDecisions)+len(b.UpdateDecisions)+len(b.CloseDecisions)+
		len(b.CreateRisks)+len(b.UpdateRisks)+len(b.CloseRisks) == 0
}

// RecordRepository defines the interface for published record access and
// vector similarity lookups.
type RecordRepository interface {
	// ListOpenItems returns open records of all kinds for a project,
	// capped at limit per kind, for prompt context
	ListOpenItems(ctx context.Context, projectID uuid.UUID, limit int) ([]entities.OpenItem, error)

	// MatchActionItems finds open action items whose embedding is within
	// the similarity threshold, best first, capped at limit
	MatchActionItems(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error)

	// MatchDecisions finds similar open decisions
	MatchDecisions(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error)

	// MatchRisks finds similar open risks
	MatchRisks(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error)

	// Publish applies every mutation in the batch inside one transaction,
	// storing the given embeddings (keyed by record ID) alongside creates
	Publish(ctx context.Context, batch *PublishBatch, embeddings map[uuid.UUID][]float32) error
}
