package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/dedup"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/resolution"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
	"github.com/johnquangdev/meeting-scribe/pkg/jobcontext"
)

// zombieCutoff is how long a meeting may sit in processing before the
// recovery worker assumes its worker died and resets it to draft.
const zombieCutoff = 30 * time.Minute

// TranscriptArchiver stores raw transcripts durably before processing.
// Satisfied by *storage.TranscriptStore.
type TranscriptArchiver interface {
	Archive(ctx context.Context, meetingID string, transcript string) (string, error)
}

// Service runs the extraction pipeline for meetings.
type Service interface {
	// ProcessMeeting claims a meeting and runs the pipeline asynchronously.
	ProcessMeeting(ctx context.Context, meetingID uuid.UUID) error

	// StartWorkerPool starts the zombie recovery worker.
	StartWorkerPool(ctx context.Context) error

	// StopWorkerPool stops background workers and waits for in-flight
	// pipeline runs to finish.
	StopWorkerPool() error
}

type extractionService struct {
	meetingRepo   repositories.MeetingRepository
	changeSetRepo repositories.ChangeSetRepository
	recordRepo    repositories.RecordRepository
	orchestrator  *Orchestrator
	validator     *OutputValidator
	resolver      *resolution.Resolver
	detector      *dedup.Detector
	archiver      TranscriptArchiver
	cfg           *config.Config
	logger        *zap.Logger

	processingSlots chan struct{}
	workerStopChan  chan struct{}
	workerWg        sync.WaitGroup
	pipelineWg      sync.WaitGroup
	isRunning       bool
	workerMutex     sync.Mutex
}

// NewService constructs the extraction pipeline service. The archiver may
// be nil when object storage is not configured.
func NewService(
	meetingRepo repositories.MeetingRepository,
	changeSetRepo repositories.ChangeSetRepository,
	recordRepo repositories.RecordRepository,
	orchestrator *Orchestrator,
	resolver *resolution.Resolver,
	detector *dedup.Detector,
	archiver TranscriptArchiver,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	slots := cfg.Pipeline.ProcessingSlots
	if slots <= 0 {
		slots = 2
	}
	return &extractionService{
		meetingRepo:     meetingRepo,
		changeSetRepo:   changeSetRepo,
		recordRepo:      recordRepo,
		orchestrator:    orchestrator,
		validator:       NewOutputValidator(),
		resolver:        resolver,
		detector:        detector,
		archiver:        archiver,
		cfg:             cfg,
		logger:          logger,
		processingSlots: make(chan struct{}, slots),
		workerStopChan:  make(chan struct{}),
	}
}

// ProcessMeeting claims the meeting and kicks off the pipeline in the
// background. Returns immediately once the claim succeeds; progress is
// visible through the meeting status.
func (s *extractionService) ProcessMeeting(ctx context.Context, meetingID uuid.UUID) error {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if meeting == nil {
		return apperrors.ErrMeetingNotFound(meetingID.String())
	}
	if meeting.Transcript == "" {
		return apperrors.ErrTranscriptMissing(meetingID.String())
	}
	if !meeting.CanProcess() {
		return apperrors.ErrMeetingInvalidState(meetingID.String(), string(meeting.Status), "draft or failed")
	}

	// Atomic claim: only one caller moves the meeting into processing.
	claimed, err := s.meetingRepo.ClaimForProcessing(ctx, meetingID)
	if err != nil {
		return err
	}
	if !claimed {
		return apperrors.ErrMeetingInvalidState(meetingID.String(), string(meeting.Status), "draft or failed")
	}

	if s.logger != nil {
		s.logger.Info("🤖 Meeting claimed for extraction",
			zap.String("meeting_id", meetingID.String()),
			zap.String("category", string(meeting.Category)),
		)
	}

	s.pipelineWg.Add(1)
	go func() {
		defer s.pipelineWg.Done()

		// Bound concurrent pipeline runs; extra claims queue here.
		s.processingSlots <- struct{}{}
		defer func() { <-s.processingSlots }()

		jobCtx, cancel := jobcontext.JobBegin(context.Background(), meetingID, "extraction", 0, s.cfg.Pipeline.JobTimeout)
		defer cancel()

		// Transient failures (network, rate limits, deadlocks) get bounded
		// retries with panic recovery; everything else fails the meeting.
		err := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
			return s.runPipeline(ctx, meeting)
		})
		if err != nil {
			if s.logger != nil {
				meta := jobcontext.GetJobMetadata(jobCtx)
				s.logger.Error("❌ Extraction pipeline failed",
					zap.String("meeting_id", meetingID.String()),
					zap.String("stage", meta.Stage),
					zap.Duration("elapsed", time.Since(meta.StartTime)),
					zap.Error(err),
				)
			}
			if markErr := s.meetingRepo.MarkFailed(context.Background(), meetingID, err.Error()); markErr != nil && s.logger != nil {
				s.logger.Error("❌ Failed to mark meeting as failed",
					zap.String("meeting_id", meetingID.String()),
					zap.Error(markErr),
				)
			}
		}
	}()

	return nil
}

// runPipeline executes the extraction stages for one claimed meeting.
func (s *extractionService) runPipeline(ctx context.Context, meeting *entities.Meeting) error {
	start := time.Now()

	// A failed meeting being reprocessed may still have a stale change set.
	if err := s.changeSetRepo.RetireByMeetingID(ctx, meeting.ID); err != nil {
		return err
	}

	s.archiveTranscript(ctx, meeting)

	attendees, err := decodeAttendees(meeting)
	if err != nil {
		return apperrors.ErrProcessingFailed(fmt.Errorf("invalid attendee roster: %w", err))
	}

	openItems, err := s.recordRepo.ListOpenItems(ctx, meeting.ProjectID, s.cfg.Pipeline.OpenItemLimit)
	if err != nil {
		return err
	}

	prompt := BuildExtractionPrompt(PromptInput{
		Meeting:       meeting,
		Attendees:     attendees,
		OpenItems:     openItems,
		OpenItemLimit: s.cfg.Pipeline.OpenItemLimit,
	})

	generated, err := s.orchestrator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("🤖 Generation complete",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("provider", generated.ProviderUsed),
			zap.Bool("is_fallback", generated.IsFallback),
			zap.Duration("latency", generated.Latency),
		)
	}

	output, err := ParseAndValidate(ctx, s.orchestrator, s.validator, generated.Content, meeting.Category, s.logger)
	if err != nil {
		return err
	}

	dir, err := s.resolver.LoadDirectory(ctx, meeting.ProjectID, attendees)
	if err != nil {
		return err
	}

	items := BuildProposedItems(output, s.resolver, dir)

	results := s.detector.CheckBatch(ctx, meeting.ProjectID, items)
	dedup.Apply(items, results)

	changeSet := &entities.ProposedChangeSet{
		ID:            uuid.New(),
		MeetingID:     meeting.ID,
		SchemaVersion: output.SchemaVersion,
	}
	if err := encodeChangeSetPayloads(changeSet, output, items); err != nil {
		return apperrors.ErrProcessingFailed(err)
	}
	if err := s.changeSetRepo.Create(ctx, changeSet); err != nil {
		return err
	}

	if err := s.meetingRepo.MarkReview(ctx, meeting.ID); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("✅ Meeting ready for review",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("change_set_id", changeSet.ID.String()),
			zap.Int("item_count", len(items)),
			zap.Duration("total", time.Since(start)),
		)
	}
	return nil
}

// archiveTranscript copies the raw transcript to object storage. Failure
// only logs; the transcript still lives in the database row.
func (s *extractionService) archiveTranscript(ctx context.Context, meeting *entities.Meeting) {
	if s.archiver == nil {
		return
	}
	uri, err := s.archiver.Archive(ctx, meeting.ID.String(), meeting.Transcript)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("❌ Transcript archival failed",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
		return
	}
	if err := s.meetingRepo.SetTranscriptURI(ctx, meeting.ID, uri); err != nil && s.logger != nil {
		s.logger.Warn("❌ Failed to record transcript URI",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
	}
}

// BuildProposedItems flattens the extraction output into reviewable items
// with fresh temp IDs and resolved owners. Items start accepted; reviewers
// opt out rather than in.
func BuildProposedItems(output *entities.ExtractionOutput, resolver *resolution.Resolver, dir *resolution.Directory) []entities.ProposedItem {
	items := make([]entities.ProposedItem, 0, output.ItemCount())

	for _, ai := range output.ActionItems {
		items = append(items, entities.ProposedItem{
			TempID:         uuid.New().String(),
			Kind:           entities.KindActionItem,
			Operation:      ai.Operation,
			TargetID:       parseTargetID(ai.TargetID),
			Title:          ai.Title,
			Description:    ai.Description,
			Owner:          resolver.Resolve(ai.Owner, dir),
			Accepted:       true,
			DueDate:        ai.DueDate,
			Priority:       ai.Priority,
			EvidenceQuotes: ai.EvidenceQuotes,
		})
	}

	for _, d := range output.Decisions {
		items = append(items, entities.ProposedItem{
			TempID:         uuid.New().String(),
			Kind:           entities.KindDecision,
			Operation:      d.Operation,
			TargetID:       parseTargetID(d.TargetID),
			Title:          d.Title,
			Description:    d.Description,
			Owner:          resolver.Resolve(d.Owner, dir),
			Accepted:       true,
			Outcome:        d.Outcome,
			EvidenceQuotes: d.EvidenceQuotes,
		})
	}

	for _, risk := range output.Risks {
		items = append(items, entities.ProposedItem{
			TempID:         uuid.New().String(),
			Kind:           entities.KindRisk,
			Operation:      risk.Operation,
			TargetID:       parseTargetID(risk.TargetID),
			Title:          risk.Title,
			Description:    risk.Description,
			Owner:          resolver.Resolve(risk.Owner, dir),
			Accepted:       true,
			Severity:       risk.Severity,
			Likelihood:     risk.Likelihood,
			Mitigation:     risk.Mitigation,
			EvidenceQuotes: risk.EvidenceQuotes,
		})
	}

	return items
}

func parseTargetID(raw *string) *uuid.UUID {
	if raw == nil {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &id
}

func decodeAttendees(meeting *entities.Meeting) ([]entities.Attendee, error) {
	if len(meeting.Attendees) == 0 {
		return nil, nil
	}
	var attendees []entities.Attendee
	if err := json.Unmarshal(meeting.Attendees, &attendees); err != nil {
		return nil, err
	}
	return attendees, nil
}

func encodeChangeSetPayloads(cs *entities.ProposedChangeSet, output *entities.ExtractionOutput, items []entities.ProposedItem) error {
	recap, err := json.Marshal(output.Recap)
	if err != nil {
		return err
	}
	cs.Recap = recap

	if output.Tone != nil {
		tone, err := json.Marshal(output.Tone)
		if err != nil {
			return err
		}
		cs.Tone = tone
	}
	if output.Fishbone != nil {
		fishbone, err := json.Marshal(output.Fishbone)
		if err != nil {
			return err
		}
		cs.Fishbone = fishbone
	}

	return cs.SetItems(items)
}

// StartWorkerPool starts the zombie recovery worker.
func (s *extractionService) StartWorkerPool(ctx context.Context) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("worker pool already running")
	}
	s.isRunning = true
	s.workerStopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🚀 Starting extraction workers")
	}

	s.workerWg.Add(1)
	go s.zombieRecoveryWorker(ctx)

	return nil
}

// StopWorkerPool stops workers and waits for running pipelines.
func (s *extractionService) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping extraction workers...")
	}

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.pipelineWg.Wait()
	s.isRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Extraction workers stopped")
	}
	return nil
}

// zombieRecoveryWorker resets meetings stuck in processing back to draft
// so they can be retried. Covers worker crashes mid-pipeline.
func (s *extractionService) zombieRecoveryWorker(parentCtx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.Info("👷 Zombie recovery worker started")
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Zombie recovery worker stopping")
			}
			return

		case <-ticker.C:
			cutoff := time.Now().Add(-zombieCutoff)
			stuck, err := s.meetingRepo.FindStuckProcessing(parentCtx, cutoff)
			if err != nil {
				if s.logger != nil {
					s.logger.Error("❌ Failed to scan for zombie meetings", zap.Error(err))
				}
				continue
			}

			for _, meeting := range stuck {
				if s.logger != nil {
					s.logger.Warn("🧟 Resetting zombie meeting to draft",
						zap.String("meeting_id", meeting.ID.String()),
						zap.Time("updated_at", meeting.UpdatedAt),
					)
				}
				if err := s.meetingRepo.UpdateStatus(parentCtx, meeting.ID, entities.MeetingStatusDraft); err != nil && s.logger != nil {
					s.logger.Error("❌ Failed to reset zombie meeting",
						zap.String("meeting_id", meeting.ID.String()),
						zap.Error(err),
					)
				}
			}
		}
	}
}
