package review

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/dedup"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/resolution"
)

// Service coordinates human review of proposed change sets: the optimistic
// lock, item edits, owner reassignment and publishing.
type Service interface {
	// GetChangeSet loads a change set with its items decoded.
	GetChangeSet(ctx context.Context, changeSetID uuid.UUID) (*entities.ProposedChangeSet, []entities.ProposedItem, error)

	// AcquireLock takes the review lock for a user at the version they
	// last read. Returns the new lock version.
	AcquireLock(ctx context.Context, changeSetID, userID uuid.UUID, expectedVersion int64) (int64, error)

	// ReleaseLock releases the lock held by the user.
	ReleaseLock(ctx context.Context, changeSetID, userID uuid.UUID) error

	// ForceUnlock clears the lock regardless of holder. Admin only,
	// enforced at the transport layer.
	ForceUnlock(ctx context.Context, changeSetID uuid.UUID) error

	// SaveItems replaces the proposed items. Caller must hold the lock at
	// the expected version. Returns the new lock version.
	SaveItems(ctx context.Context, changeSetID, userID uuid.UUID, expectedVersion int64, items []entities.ProposedItem) (int64, error)

	// ReassignOwner reassigns the owner on one item and every other item
	// sharing the same mention name, then re-resolves them. Returns the
	// new lock version.
	ReassignOwner(ctx context.Context, req ReassignRequest) (int64, error)

	// Publish applies every accepted item to the live records and retires
	// the change set.
	Publish(ctx context.Context, changeSetID, userID uuid.UUID, expectedVersion int64) error
}

// ReassignRequest carries one owner reassignment.
type ReassignRequest struct {
	ChangeSetID     uuid.UUID
	UserID          uuid.UUID
	ExpectedVersion int64
	TempID          string
	NewOwnerName    string
	NewOwnerEmail   string
	// CreateContact adds the new owner as a project contact when no
	// directory entry matches.
	CreateContact bool
}

type reviewService struct {
	changeSetRepo repositories.ChangeSetRepository
	meetingRepo   repositories.MeetingRepository
	recordRepo    repositories.RecordRepository
	identityRepo  repositories.IdentityRepository
	resolver      *resolution.Resolver
	embedder      dedup.Embedder
	logger        *zap.Logger
}

// NewService constructs the review service. The embedder may be nil; new
// records then publish without stored embeddings and are invisible to
// similarity search until re-embedded.
func NewService(
	changeSetRepo repositories.ChangeSetRepository,
	meetingRepo repositories.MeetingRepository,
	recordRepo repositories.RecordRepository,
	identityRepo repositories.IdentityRepository,
	resolver *resolution.Resolver,
	embedder dedup.Embedder,
	logger *zap.Logger,
) Service {
	return &reviewService{
		changeSetRepo: changeSetRepo,
		meetingRepo:   meetingRepo,
		recordRepo:    recordRepo,
		identityRepo:  identityRepo,
		resolver:      resolver,
		embedder:      embedder,
		logger:        logger,
	}
}

func (s *reviewService) GetChangeSet(ctx context.Context, changeSetID uuid.UUID) (*entities.ProposedChangeSet, []entities.ProposedItem, error) {
	cs, err := s.changeSetRepo.FindByID(ctx, changeSetID)
	if err != nil {
		return nil, nil, err
	}
	if cs == nil {
		return nil, nil, apperrors.ErrChangeSetNotFound(changeSetID.String())
	}
	items, err := cs.Items()
	if err != nil {
		return nil, nil, apperrors.ErrInternal(err)
	}
	return cs, items, nil
}

func (s *reviewService) AcquireLock(ctx context.Context, changeSetID, userID uuid.UUID, expectedVersion int64) (int64, error) {
	newVersion, ok, err := s.changeSetRepo.AcquireLock(ctx, changeSetID, userID, expectedVersion)
	if err != nil {
		return 0, err
	}
	if !ok {
		// Lost the compare-and-swap: either someone else holds the lock
		// or the caller's version is stale. Re-read to tell them which.
		cs, findErr := s.changeSetRepo.FindByID(ctx, changeSetID)
		if findErr != nil {
			return 0, findErr
		}
		if cs == nil {
			return 0, apperrors.ErrChangeSetNotFound(changeSetID.String())
		}
		if cs.IsLocked() && !cs.IsLockedBy(userID) {
			return 0, apperrors.ErrLockHeld(cs.LockedByUserID.String())
		}
		return 0, apperrors.ErrLockVersionStale(expectedVersion, cs.LockVersion)
	}

	if s.logger != nil {
		s.logger.Info("🔒 Review lock acquired",
			zap.String("change_set_id", changeSetID.String()),
			zap.String("user_id", userID.String()),
			zap.Int64("lock_version", newVersion),
		)
	}
	return newVersion, nil
}

func (s *reviewService) ReleaseLock(ctx context.Context, changeSetID, userID uuid.UUID) error {
	ok, err := s.changeSetRepo.ReleaseLock(ctx, changeSetID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrLockNotHeld(userID.String())
	}
	return nil
}

func (s *reviewService) ForceUnlock(ctx context.Context, changeSetID uuid.UUID) error {
	if err := s.changeSetRepo.ForceUnlock(ctx, changeSetID); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Warn("🔓 Review lock force-unlocked",
			zap.String("change_set_id", changeSetID.String()),
		)
	}
	return nil
}

func (s *reviewService) SaveItems(ctx context.Context, changeSetID, userID uuid.UUID, expectedVersion int64, items []entities.ProposedItem) (int64, error) {
	newVersion, ok, err := s.changeSetRepo.ReplaceItems(ctx, changeSetID, userID, expectedVersion, items)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, s.explainWriteFailure(ctx, changeSetID, userID, expectedVersion)
	}
	return newVersion, nil
}

// ReassignOwner changes the owner on the named item and on every other
// item whose mention name matches case-insensitively. One spoken name
// means one person; fixing it once fixes it everywhere.
func (s *reviewService) ReassignOwner(ctx context.Context, req ReassignRequest) (int64, error) {
	cs, items, err := s.GetChangeSet(ctx, req.ChangeSetID)
	if err != nil {
		return 0, err
	}
	if !cs.IsLockedBy(req.UserID) {
		return 0, apperrors.ErrLockNotHeld(req.UserID.String())
	}

	var target *entities.ProposedItem
	for i := range items {
		if items[i].TempID == req.TempID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return 0, apperrors.ErrNotFound("proposed item")
	}
	mentionName := target.Owner.Name

	meeting, err := s.meetingRepo.FindByID(ctx, cs.MeetingID)
	if err != nil {
		return 0, err
	}
	if meeting == nil {
		return 0, apperrors.ErrMeetingNotFound(cs.MeetingID.String())
	}

	dir, err := s.resolver.LoadDirectory(ctx, meeting.ProjectID, nil)
	if err != nil {
		return 0, err
	}

	mention := &entities.OwnerMention{Name: req.NewOwnerName, Email: req.NewOwnerEmail}
	resolved := s.resolver.Resolve(mention, dir)

	if resolved.ResolutionStatus == entities.OwnerUnknown && req.CreateContact {
		contact := &entities.ProjectContact{
			ID:        uuid.New(),
			ProjectID: meeting.ProjectID,
			Name:      req.NewOwnerName,
			Email:     strings.ToLower(strings.TrimSpace(req.NewOwnerEmail)),
		}
		if err := s.identityRepo.CreateContact(ctx, contact); err != nil {
			return 0, err
		}
		contactID := contact.ID
		resolved = entities.ProposedOwner{
			Name:              req.NewOwnerName,
			Email:             contact.Email,
			ResolvedContactID: &contactID,
			ResolutionStatus:  entities.OwnerResolved,
		}
		if s.logger != nil {
			s.logger.Info("✅ Contact created during review",
				zap.String("contact_id", contact.ID.String()),
				zap.String("name", contact.Name),
			)
		}
	}

	reassigned := 0
	for i := range items {
		if items[i].TempID == req.TempID || strings.EqualFold(items[i].Owner.Name, mentionName) {
			items[i].Owner = resolved
			reassigned++
		}
	}

	if s.logger != nil {
		s.logger.Info("✅ Owner reassigned",
			zap.String("change_set_id", req.ChangeSetID.String()),
			zap.String("mention", mentionName),
			zap.String("new_owner", req.NewOwnerName),
			zap.Int("items_updated", reassigned),
		)
	}

	return s.SaveItems(ctx, req.ChangeSetID, req.UserID, req.ExpectedVersion, items)
}

// Publish validates that no accepted item carries a blocking owner status,
// applies every accepted item to the live records in one transaction,
// marks the meeting published and retires the change set.
func (s *reviewService) Publish(ctx context.Context, changeSetID, userID uuid.UUID, expectedVersion int64) error {
	cs, items, err := s.GetChangeSet(ctx, changeSetID)
	if err != nil {
		return err
	}
	if !cs.IsLockedBy(userID) {
		return apperrors.ErrLockNotHeld(userID.String())
	}
	if cs.LockVersion != expectedVersion {
		return apperrors.ErrLockVersionStale(expectedVersion, cs.LockVersion)
	}
	if cs.RetiredAt != nil {
		return apperrors.ErrChangeSetNotFound(changeSetID.String())
	}

	var blocked []string
	for _, item := range items {
		if item.Accepted && item.Owner.ResolutionStatus.BlocksPublish() {
			blocked = append(blocked, item.TempID)
		}
	}
	if len(blocked) > 0 {
		return apperrors.ErrPublishBlocked(blocked)
	}

	meeting, err := s.meetingRepo.FindByID(ctx, cs.MeetingID)
	if err != nil {
		return err
	}
	if meeting == nil {
		return apperrors.ErrMeetingNotFound(cs.MeetingID.String())
	}

	batch := BuildPublishBatch(meeting, items)
	embeddings := s.embedCreates(ctx, batch)
	if err := s.recordRepo.Publish(ctx, batch, embeddings); err != nil {
		return err
	}

	if err := s.meetingRepo.MarkPublished(ctx, meeting.ID); err != nil {
		return err
	}
	if err := s.changeSetRepo.Retire(ctx, changeSetID); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("✅ Change set published",
			zap.String("change_set_id", changeSetID.String()),
			zap.String("meeting_id", meeting.ID.String()),
		)
	}
	return nil
}

// embedCreates computes embeddings for every record the batch creates.
// An embedding failure only logs; the record publishes without one.
func (s *reviewService) embedCreates(ctx context.Context, batch *repositories.PublishBatch) map[uuid.UUID][]float32 {
	if s.embedder == nil {
		return nil
	}

	embeddings := make(map[uuid.UUID][]float32)
	embed := func(id uuid.UUID, title, body string) {
		vector, err := s.embedder.Embed(ctx, dedup.EmbeddingText(title, body))
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("❌ Failed to embed record at publish",
					zap.String("record_id", id.String()),
					zap.Error(err),
				)
			}
			return
		}
		embeddings[id] = vector
	}

	for _, r := range batch.CreateActionItems {
		embed(r.ID, r.Title, r.Description)
	}
	for _, r := range batch.CreateDecisions {
		embed(r.ID, r.Title, r.Description)
	}
	for _, r := range batch.CreateRisks {
		embed(r.ID, r.Title, r.Description)
	}
	return embeddings
}

// explainWriteFailure re-reads the change set after a lost CAS to return
// the precise error.
func (s *reviewService) explainWriteFailure(ctx context.Context, changeSetID, userID uuid.UUID, expectedVersion int64) error {
	cs, err := s.changeSetRepo.FindByID(ctx, changeSetID)
	if err != nil {
		return err
	}
	if cs == nil {
		return apperrors.ErrChangeSetNotFound(changeSetID.String())
	}
	if !cs.IsLockedBy(userID) {
		return apperrors.ErrLockNotHeld(userID.String())
	}
	return apperrors.ErrLockVersionStale(expectedVersion, cs.LockVersion)
}

// BuildPublishBatch converts accepted items into record mutations.
// Rejected items are simply dropped. A close without a target has nothing
// to close and is dropped too; an update without a target keeps its
// content as a new record.
func BuildPublishBatch(meeting *entities.Meeting, items []entities.ProposedItem) *repositories.PublishBatch {
	batch := &repositories.PublishBatch{}

	for _, item := range items {
		if !item.Accepted {
			continue
		}
		switch item.Kind {
		case entities.KindActionItem:
			switch {
			case item.Operation == entities.OperationClose:
				if item.TargetID != nil {
					batch.CloseActionItems = append(batch.CloseActionItems, *item.TargetID)
				}
			case item.Operation == entities.OperationUpdate && item.TargetID != nil:
				record := actionItemRecord(meeting, item)
				record.ID = *item.TargetID
				batch.UpdateActionItems = append(batch.UpdateActionItems, record)
			default:
				batch.CreateActionItems = append(batch.CreateActionItems, actionItemRecord(meeting, item))
			}
		case entities.KindDecision:
			switch {
			case item.Operation == entities.OperationClose:
				if item.TargetID != nil {
					batch.CloseDecisions = append(batch.CloseDecisions, *item.TargetID)
				}
			case item.Operation == entities.OperationUpdate && item.TargetID != nil:
				record := decisionRecord(meeting, item)
				record.ID = *item.TargetID
				batch.UpdateDecisions = append(batch.UpdateDecisions, record)
			default:
				batch.CreateDecisions = append(batch.CreateDecisions, decisionRecord(meeting, item))
			}
		case entities.KindRisk:
			switch {
			case item.Operation == entities.OperationClose:
				if item.TargetID != nil {
					batch.CloseRisks = append(batch.CloseRisks, *item.TargetID)
				}
			case item.Operation == entities.OperationUpdate && item.TargetID != nil:
				record := riskRecord(meeting, item)
				record.ID = *item.TargetID
				batch.UpdateRisks = append(batch.UpdateRisks, record)
			default:
				batch.CreateRisks = append(batch.CreateRisks, riskRecord(meeting, item))
			}
		}
	}
	return batch
}

func actionItemRecord(meeting *entities.Meeting, item entities.ProposedItem) *entities.ActionItemRecord {
	record := &entities.ActionItemRecord{
		ID:             uuid.New(),
		ProjectID:      meeting.ProjectID,
		MeetingID:      meeting.ID,
		Title:          item.Title,
		Description:    item.Description,
		Status:         entities.RecordStatusOpen,
		OwnerUserID:    item.Owner.ResolvedUserID,
		OwnerContactID: item.Owner.ResolvedContactID,
		OwnerName:      item.Owner.Name,
		Priority:       item.Priority,
	}
	if item.DueDate != nil {
		if due, err := time.Parse("2006-01-02", *item.DueDate); err == nil {
			record.DueDate = &due
		}
	}
	return record
}

func decisionRecord(meeting *entities.Meeting, item entities.ProposedItem) *entities.DecisionRecord {
	return &entities.DecisionRecord{
		ID:             uuid.New(),
		ProjectID:      meeting.ProjectID,
		MeetingID:      meeting.ID,
		Title:          item.Title,
		Description:    item.Description,
		Outcome:        item.Outcome,
		Status:         entities.RecordStatusOpen,
		OwnerUserID:    item.Owner.ResolvedUserID,
		OwnerContactID: item.Owner.ResolvedContactID,
		OwnerName:      item.Owner.Name,
	}
}

func riskRecord(meeting *entities.Meeting, item entities.ProposedItem) *entities.RiskRecord {
	return &entities.RiskRecord{
		ID:             uuid.New(),
		ProjectID:      meeting.ProjectID,
		MeetingID:      meeting.ID,
		Title:          item.Title,
		Description:    item.Description,
		Severity:       item.Severity,
		Likelihood:     item.Likelihood,
		Mitigation:     item.Mitigation,
		Status:         entities.RecordStatusOpen,
		OwnerUserID:    item.Owner.ResolvedUserID,
		OwnerContactID: item.Owner.ResolvedContactID,
		OwnerName:      item.Owner.Name,
	}
}
