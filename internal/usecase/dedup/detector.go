package dedup

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// Embedder produces a dense vector for a text. Satisfied by
// *ai.EmbeddingClient.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Detector finds likely duplicates of proposed items among the open
// records of a project using embedding similarity.
type Detector struct {
	embedder   Embedder
	recordRepo repositories.RecordRepository
	store      cache.EmbeddingStore
	threshold  float64
	maxHits    int
	logger     *zap.Logger
}

// NewDetector creates a duplicate detector.
func NewDetector(embedder Embedder, recordRepo repositories.RecordRepository, store cache.EmbeddingStore, cfg *config.PipelineConfig, logger *zap.Logger) *Detector {
	threshold := cfg.DuplicateThreshold
	if threshold <= 0 {
		threshold = 0.85
	}
	maxHits := cfg.DuplicateMaxHits
	if maxHits <= 0 {
		maxHits = 5
	}
	return &Detector{
		embedder:   embedder,
		recordRepo: recordRepo,
		store:      store,
		threshold:  threshold,
		maxHits:    maxHits,
		logger:     logger,
	}
}

// EmbeddingText builds the text embedded for an item: the title joined
// with the body so short titles still carry context.
func EmbeddingText(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if body == "" {
		return title
	}
	return title + ". " + body
}

// Result is the duplicate verdict for one proposed item.
type Result struct {
	TempID         string
	IsDuplicate    bool
	DuplicateOf    *uuid.UUID
	Similarity     *float64
	SimilarRecords []entities.SimilarRecord
}

// CheckItem checks one proposed item against the open records of its kind.
// Create operations only; updates and closes already target a record.
func (d *Detector) CheckItem(ctx context.Context, projectID uuid.UUID, item *entities.ProposedItem) (*Result, error) {
	result := &Result{TempID: item.TempID}
	if item.Operation != entities.OperationCreate {
		return result, nil
	}

	vector, err := d.embed(ctx, EmbeddingText(item.Title, item.Description))
	if err != nil {
		return nil, apperrors.ErrEmbeddingFailed(err)
	}

	var hits []entities.SimilarRecord
	switch item.Kind {
	case entities.KindActionItem:
		hits, err = d.recordRepo.MatchActionItems(ctx, projectID, vector, d.threshold, d.maxHits)
	case entities.KindDecision:
		hits, err = d.recordRepo.MatchDecisions(ctx, projectID, vector, d.threshold, d.maxHits)
	case entities.KindRisk:
		hits, err = d.recordRepo.MatchRisks(ctx, projectID, vector, d.threshold, d.maxHits)
	}
	if err != nil {
		return nil, apperrors.ErrSimilarityQueryFailed(string(item.Kind), err)
	}

	if len(hits) == 0 {
		return result, nil
	}

	// Hits come back best first.
	best := hits[0]
	result.IsDuplicate = true
	result.DuplicateOf = &best.ID
	result.Similarity = &best.Similarity
	result.SimilarRecords = hits
	return result, nil
}

// CheckBatch runs duplicate detection for every proposed item
// concurrently and returns results keyed by temp_id. An item whose check
// fails degrades to non-duplicate rather than failing the whole batch; the
// reviewer still sees the item, just without the duplicate flag.
func (d *Detector) CheckBatch(ctx context.Context, projectID uuid.UUID, items []entities.ProposedItem) map[string]*Result {
	results := make(map[string]*Result, len(items))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := range items {
		item := items[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := d.CheckItem(ctx, projectID, &item)
			if err != nil {
				if d.logger != nil {
					d.logger.Warn("❌ Duplicate check failed, treating as non-duplicate",
						zap.String("temp_id", item.TempID),
						zap.String("kind", string(item.Kind)),
						zap.Error(err),
					)
				}
				result = &Result{TempID: item.TempID}
			}

			mu.Lock()
			results[item.TempID] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

// Apply copies batch results onto the proposed items in place.
func Apply(items []entities.ProposedItem, results map[string]*Result) {
	for i := range items {
		result, ok := results[items[i].TempID]
		if !ok || !result.IsDuplicate {
			continue
		}
		items[i].DuplicateOf = result.DuplicateOf
		items[i].SimilarityScore = result.Similarity
		items[i].SimilarRecords = result.SimilarRecords
	}
}

// embed returns the vector for a text, consulting the cache first.
func (d *Detector) embed(ctx context.Context, text string) ([]float32, error) {
	if d.store != nil {
		if vector, ok := d.store.Get(ctx, text); ok {
			return vector, nil
		}
	}

	vector, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if d.store != nil {
		d.store.Set(ctx, text, vector)
	}
	return vector, nil
}
