package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
)

// RecordRepository handles published records and pgvector similarity
// lookups.
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// ListOpenItems returns open records of every kind for prompt context,
// capped per kind.
func (r *RecordRepository) ListOpenItems(ctx context.Context, projectID uuid.UUID, limit int) ([]entities.OpenItem, error) {
	if limit <= 0 {
		limit = 50
	}

	var items []entities.OpenItem

	var actionItems []entities.ActionItemRecord
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, entities.RecordStatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Find(&actionItems).Error; err != nil {
		return nil, apperrors.ErrDBQueryFailed("list open action items", err)
	}
	for _, rec := range actionItems {
		items = append(items, entities.OpenItem{
			ID:          rec.ID,
			Kind:        entities.KindActionItem,
			Title:       rec.Title,
			Description: rec.Description,
			OwnerName:   rec.OwnerName,
			Status:      string(rec.Status),
		})
	}

	var decisions []entities.DecisionRecord
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, entities.RecordStatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Find(&decisions).Error; err != nil {
		return nil, apperrors.ErrDBQueryFailed("list open decisions", err)
	}
	for _, rec := range decisions {
		items = append(items, entities.OpenItem{
			ID:          rec.ID,
			Kind:        entities.KindDecision,
			Title:       rec.Title,
			Description: rec.Description,
			OwnerName:   rec.OwnerName,
			Status:      string(rec.Status),
		})
	}

	var risks []entities.RiskRecord
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, entities.RecordStatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Find(&risks).Error; err != nil {
		return nil, apperrors.ErrDBQueryFailed("list open risks", err)
	}
	for _, rec := range risks {
		items = append(items, entities.OpenItem{
			ID:          rec.ID,
			Kind:        entities.KindRisk,
			Title:       rec.Title,
			Description: rec.Description,
			OwnerName:   rec.OwnerName,
			Status:      string(rec.Status),
		})
	}

	return items, nil
}

// similarityRow is the row shape returned by the match_* functions.
type similarityRow struct {
	ID         uuid.UUID `gorm:"column:id"`
	Title      string    `gorm:"column:title"`
	Similarity float64   `gorm:"column:similarity"`
}

// MatchActionItems finds similar open action items via pgvector
func (r *RecordRepository) MatchActionItems(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error) {
	return r.match(ctx, "match_action_items", projectID, embedding, threshold, limit)
}

// MatchDecisions finds similar open decisions via pgvector
func (r *RecordRepository) MatchDecisions(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error) {
	return r.match(ctx, "match_decisions", projectID, embedding, threshold, limit)
}

// MatchRisks finds similar open risks via pgvector
func (r *RecordRepository) MatchRisks(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error) {
	return r.match(ctx, "match_risks", projectID, embedding, threshold, limit)
}

func (r *RecordRepository) match(ctx context.Context, fn string, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []similarityRow
	query := fmt.Sprintf("SELECT id, title, similarity FROM %s(?, ?::vector, ?, ?)", fn)
	if err := r.db.WithContext(ctx).
		Raw(query, projectID, VectorLiteral(embedding), threshold, limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]entities.SimilarRecord, len(rows))
	for i, row := range rows {
		records[i] = entities.SimilarRecord{
			ID:         row.ID,
			Title:      row.Title,
			Similarity: row.Similarity,
		}
	}
	return records, nil
}

// Publish applies one accepted change set to the live records atomically.
func (r *RecordRepository) Publish(ctx context.Context, batch *repositories.PublishBatch, embeddings map[uuid.UUID][]float32) error {
	if batch == nil || batch.Empty() {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range batch.CreateActionItems {
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		for _, rec := range batch.UpdateActionItems {
			if err := tx.Model(&entities.ActionItemRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]interface{}{
					"title":            rec.Title,
					"description":      rec.Description,
					"owner_user_id":    rec.OwnerUserID,
					"owner_contact_id": rec.OwnerContactID,
					"owner_name":       rec.OwnerName,
					"due_date":         rec.DueDate,
					"priority":         rec.Priority,
					"updated_at":       time.Now(),
				}).Error; err != nil {
				return err
			}
		}
		if err := closeRecords(tx, &entities.ActionItemRecord{}, batch.CloseActionItems); err != nil {
			return err
		}

		for _, rec := range batch.CreateDecisions {
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		for _, rec := range batch.UpdateDecisions {
			if err := tx.Model(&entities.DecisionRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]interface{}{
					"title":            rec.Title,
					"description":      rec.Description,
					"outcome":          rec.Outcome,
					"owner_user_id":    rec.OwnerUserID,
					"owner_contact_id": rec.OwnerContactID,
					"owner_name":       rec.OwnerName,
					"updated_at":       time.Now(),
				}).Error; err != nil {
				return err
			}
		}
		if err := closeRecords(tx, &entities.DecisionRecord{}, batch.CloseDecisions); err != nil {
			return err
		}

		for _, rec := range batch.CreateRisks {
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		for _, rec := range batch.UpdateRisks {
			if err := tx.Model(&entities.RiskRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]interface{}{
					"title":            rec.Title,
					"description":      rec.Description,
					"severity":         rec.Severity,
					"likelihood":       rec.Likelihood,
					"mitigation":       rec.Mitigation,
					"owner_user_id":    rec.OwnerUserID,
					"owner_contact_id": rec.OwnerContactID,
					"owner_name":       rec.OwnerName,
					"updated_at":       time.Now(),
				}).Error; err != nil {
				return err
			}
		}
		if err := closeRecords(tx, &entities.RiskRecord{}, batch.CloseRisks); err != nil {
			return err
		}

		return storeEmbeddings(tx, embeddings)
	})
	if err != nil {
		return apperrors.ErrDBTransactionFailed(err)
	}
	return nil
}

func closeRecords(tx *gorm.DB, model interface{}, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return tx.Model(model).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     entities.RecordStatusClosed,
			"closed_at":  now,
			"updated_at": now,
		}).Error
}

// storeEmbeddings upserts record embeddings into the shared embedding
// table the match_* functions read.
func storeEmbeddings(tx *gorm.DB, embeddings map[uuid.UUID][]float32) error {
	for recordID, vector := range embeddings {
		if err := tx.Exec(
			`INSERT INTO record_embeddings (record_id, embedding, created_at)
			 VALUES (?, ?::vector, NOW())
			 ON CONFLICT (record_id) DO UPDATE SET embedding = EXCLUDED.embedding`,
			recordID, VectorLiteral(vector),
		).Error; err != nil {
			return err
		}
	}
	return nil
}

// VectorLiteral serializes a float32 slice into the pgvector text format.
func VectorLiteral(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
