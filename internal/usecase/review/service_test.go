package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/resolution"
)

// fakeChangeSetRepo mirrors the SQL compare-and-swap semantics in memory so
// the lock protocol can be exercised without a database.
type fakeChangeSetRepo struct {
	mu   sync.Mutex
	sets map[uuid.UUID]*entities.ProposedChangeSet
}

func newFakeChangeSetRepo() *fakeChangeSetRepo {
	return &fakeChangeSetRepo{sets: make(map[uuid.UUID]*entities.ProposedChangeSet)}
}

func (f *fakeChangeSetRepo) Create(ctx context.Context, cs *entities.ProposedChangeSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	stored := *cs
	f.sets[cs.ID] = &stored
	return nil
}

func (f *fakeChangeSetRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.ProposedChangeSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.sets[id]
	if !ok {
		return nil, nil
	}
	copied := *cs
	return &copied, nil
}

func (f *fakeChangeSetRepo) FindActiveByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.ProposedChangeSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cs := range f.sets {
		if cs.MeetingID == meetingID && cs.RetiredAt == nil {
			copied := *cs
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeChangeSetRepo) AcquireLock(ctx context.Context, id, userID uuid.UUID, expectedVersion int64) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.sets[id]
	if !ok || cs.RetiredAt != nil {
		return 0, false, nil
	}
	if cs.LockVersion != expectedVersion {
		return 0, false, nil
	}
	if cs.LockedByUserID != nil && *cs.LockedByUserID != userID {
		return 0, false, nil
	}
	cs.LockVersion++
	holder := userID
	now := time.Now()
	cs.LockedByUserID = &holder
	cs.LockedAt = &now
	return cs.LockVersion, true, nil
}

func (f *fakeChangeSetRepo) ReleaseLock(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.sets[id]
	if !ok || cs.LockedByUserID == nil || *cs.LockedByUserID != userID {
		return false, nil
	}
	cs.LockedByUserID = nil
	cs.LockedAt = nil
	return true, nil
}

func (f *fakeChangeSetRepo) ForceUnlock(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.sets[id]
	if !ok {
		return nil
	}
	cs.LockVersion++
	cs.LockedByUserID = nil
	cs.LockedAt = nil
	return nil
}

func (f *fakeChangeSetRepo) ReplaceItems(ctx context.Context, id, userID uuid.UUID, expectedVersion int64, items []entities.ProposedItem) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.sets[id]
	if !ok || cs.RetiredAt != nil {
		return 0, false, nil
	}
	if cs.LockedByUserID == nil || *cs.LockedByUserID != userID || cs.LockVersion != expectedVersion {
		return 0, false, nil
	}
	if err := cs.SetItems(items); err != nil {
		return 0, false, err
	}
	cs.LockVersion++
	return cs.LockVersion, true, nil
}

func (f *fakeChangeSetRepo) Retire(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cs, ok := f.sets[id]; ok && cs.RetiredAt == nil {
		now := time.Now()
		cs.RetiredAt = &now
	}
	return nil
}

func (f *fakeChangeSetRepo) RetireByMeetingID(ctx context.Context, meetingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cs := range f.sets {
		if cs.MeetingID == meetingID && cs.RetiredAt == nil {
			now := time.Now()
			cs.RetiredAt = &now
		}
	}
	return nil
}

type fakeMeetingRepo struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (f *fakeMeetingRepo) Create(ctx context.Context, m *entities.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meetings[m.ID] = m
	return nil
}

func (f *fakeMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMeetingRepo) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*entities.Meeting, error) {
	return nil, nil
}

func (f *fakeMeetingRepo) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeMeetingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) error {
	return nil
}

func (f *fakeMeetingRepo) MarkReview(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeMeetingRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meetings[id]; ok {
		m.Status = entities.MeetingStatusPublished
	}
	return nil
}

func (f *fakeMeetingRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return nil
}

func (f *fakeMeetingRepo) SetTranscriptURI(ctx context.Context, id uuid.UUID, uri string) error {
	return nil
}

func (f *fakeMeetingRepo) FindStuckProcessing(ctx context.Context, before time.Time) ([]*entities.Meeting, error) {
	return nil, nil
}

type fakePublishRepo struct {
	mu        sync.Mutex
	published *repositories.PublishBatch
}

func (f *fakePublishRepo) ListOpenItems(ctx context.Context, projectID uuid.UUID, limit int) ([]entities.OpenItem, error) {
	return nil, nil
}

func (f *fakePublishRepo) MatchActionItems(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error) {
	return nil, nil
}

func (f *fakePublishRepo) MatchDecisions(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error) {
	return nil, nil
}

func (f *fakePublishRepo) MatchRisks(ctx context.Context, projectID uuid.UUID, embedding []float32, threshold float64, limit int) ([]entities.SimilarRecord, error) {
	return nil, nil
}

func (f *fakePublishRepo) Publish(ctx context.Context, batch *repositories.PublishBatch, embeddings map[uuid.UUID][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = batch
	return nil
}

type fakeIdentityRepo struct {
	mu       sync.Mutex
	members  []*entities.ProjectMember
	contacts []*entities.ProjectContact
}

func (f *fakeIdentityRepo) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.ProjectMember(nil), f.members...), nil
}

func (f *fakeIdentityRepo) ListContacts(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.ProjectContact(nil), f.contacts...), nil
}

func (f *fakeIdentityRepo) CreateContact(ctx context.Context, contact *entities.ProjectContact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, contact)
	return nil
}

func (f *fakeIdentityRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return nil, nil
}

type reviewFixture struct {
	service     Service
	changeSets  *fakeChangeSetRepo
	meetings    *fakeMeetingRepo
	records     *fakePublishRepo
	identities  *fakeIdentityRepo
	meetingID   uuid.UUID
	changeSetID uuid.UUID
}

func newReviewFixture(t *testing.T, items []entities.ProposedItem) *reviewFixture {
	t.Helper()

	changeSets := newFakeChangeSetRepo()
	meetings := newFakeMeetingRepo()
	records := &fakePublishRepo{}
	identities := &fakeIdentityRepo{
		members: []*entities.ProjectMember{
			{UserID: uuid.New(), Name: "John Smith", Email: "john@acme.test"},
		},
	}

	meeting := &entities.Meeting{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Title:     "Sprint review",
		Category:  entities.CategoryProject,
		Status:    entities.MeetingStatusReview,
	}
	if err := meetings.Create(context.Background(), meeting); err != nil {
		t.Fatalf("seed meeting: %v", err)
	}

	cs := &entities.ProposedChangeSet{
		ID:            uuid.New(),
		MeetingID:     meeting.ID,
		SchemaVersion: entities.CurrentSchemaVersion,
	}
	if err := cs.SetItems(items); err != nil {
		t.Fatalf("seed items: %v", err)
	}
	if err := changeSets.Create(context.Background(), cs); err != nil {
		t.Fatalf("seed change set: %v", err)
	}

	resolver := resolution.NewResolver(identities, nil)
	service := NewService(changeSets, meetings, records, identities, resolver, nil, nil)

	return &reviewFixture{
		service:     service,
		changeSets:  changeSets,
		meetings:    meetings,
		records:     records,
		identities:  identities,
		meetingID:   meeting.ID,
		changeSetID: cs.ID,
	}
}

func acceptedItem(tempID, ownerName string, status entities.OwnerResolutionStatus) entities.ProposedItem {
	return entities.ProposedItem{
		TempID:    tempID,
		Kind:      entities.KindActionItem,
		Operation: entities.OperationCreate,
		Title:     "Item " + tempID,
		Owner:     entities.ProposedOwner{Name: ownerName, ResolutionStatus: status},
		Accepted:  true,
	}
}

func appErrCode(t *testing.T, err error) int {
	t.Helper()
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return int(appErr.Code)
}

func TestAcquireLock(t *testing.T) {
	fx := newReviewFixture(t, nil)
	ctx := context.Background()
	userA, userB := uuid.New(), uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, userA, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	// Another user at the current version still loses: the lock is held.
	_, err = fx.service.AcquireLock(ctx, fx.changeSetID, userB, version)
	if err == nil {
		t.Fatal("expected conflict for second user")
	}
	if got, want := appErrCode(t, err), appErrCode(t, apperrors.ErrLockHeld(userA.String())); got != want {
		t.Fatalf("expected lock-held error, got code %d", got)
	}

	// The holder can re-acquire at the version it last saw.
	version, err = fx.service.AcquireLock(ctx, fx.changeSetID, userA, version)
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}
}

func TestAcquireLockStaleVersion(t *testing.T) {
	fx := newReviewFixture(t, nil)
	ctx := context.Background()
	user := uuid.New()

	if _, err := fx.service.AcquireLock(ctx, fx.changeSetID, user, 0); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	_, err := fx.service.AcquireLock(ctx, fx.changeSetID, user, 0)
	if err == nil {
		t.Fatal("expected stale version error")
	}
	if got, want := appErrCode(t, err), appErrCode(t, apperrors.ErrLockVersionStale(0, 1)); got != want {
		t.Fatalf("expected stale-version error, got code %d", got)
	}
}

func TestAcquireLockConcurrent(t *testing.T) {
	fx := newReviewFixture(t, nil)
	ctx := context.Background()

	const contenders = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := fx.service.AcquireLock(ctx, fx.changeSetID, uuid.New(), 0); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestReleaseLock(t *testing.T) {
	fx := newReviewFixture(t, nil)
	ctx := context.Background()
	userA, userB := uuid.New(), uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, userA, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := fx.service.ReleaseLock(ctx, fx.changeSetID, userB); err == nil {
		t.Fatal("non-holder must not release the lock")
	}
	if err := fx.service.ReleaseLock(ctx, fx.changeSetID, userA); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	// Release does not bump the version, so the next reader acquires at it.
	if _, err := fx.service.AcquireLock(ctx, fx.changeSetID, userB, version); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestForceUnlockInvalidatesHolder(t *testing.T) {
	items := []entities.ProposedItem{acceptedItem("tmp-1", "John Smith", entities.OwnerResolved)}
	fx := newReviewFixture(t, items)
	ctx := context.Background()
	holder := uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, holder, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := fx.service.ForceUnlock(ctx, fx.changeSetID); err != nil {
		t.Fatalf("force unlock failed: %v", err)
	}

	// The evicted holder's write must fail.
	if _, err := fx.service.SaveItems(ctx, fx.changeSetID, holder, version, items); err == nil {
		t.Fatal("evicted holder's save must fail")
	}

	// A fresh reader acquires at the bumped version.
	cs, _, err := fx.service.GetChangeSet(ctx, fx.changeSetID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cs.IsLocked() {
		t.Fatal("force unlock left the lock held")
	}
	if _, err := fx.service.AcquireLock(ctx, fx.changeSetID, uuid.New(), cs.LockVersion); err != nil {
		t.Fatalf("acquire after force unlock failed: %v", err)
	}
}

func TestSaveItemsRequiresLockAndVersion(t *testing.T) {
	items := []entities.ProposedItem{acceptedItem("tmp-1", "John Smith", entities.OwnerResolved)}
	fx := newReviewFixture(t, items)
	ctx := context.Background()
	user := uuid.New()

	// Without the lock.
	if _, err := fx.service.SaveItems(ctx, fx.changeSetID, user, 0, items); err == nil {
		t.Fatal("save without lock must fail")
	}

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, user, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	// Stale version.
	if _, err := fx.service.SaveItems(ctx, fx.changeSetID, user, version-1, items); err == nil {
		t.Fatal("save at stale version must fail")
	}

	items[0].Accepted = false
	newVersion, err := fx.service.SaveItems(ctx, fx.changeSetID, user, version, items)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if newVersion != version+1 {
		t.Fatalf("expected version bump to %d, got %d", version+1, newVersion)
	}

	_, saved, err := fx.service.GetChangeSet(ctx, fx.changeSetID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(saved) != 1 || saved[0].Accepted {
		t.Fatalf("saved items not persisted: %+v", saved)
	}
}

func TestReassignOwnerAppliesToSameMention(t *testing.T) {
	items := []entities.ProposedItem{
		acceptedItem("tmp-1", "Jhon", entities.OwnerNeedsConfirmation),
		acceptedItem("tmp-2", "jhon", entities.OwnerNeedsConfirmation),
		acceptedItem("tmp-3", "Maria", entities.OwnerUnknown),
	}
	fx := newReviewFixture(t, items)
	ctx := context.Background()
	user := uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, user, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	newVersion, err := fx.service.ReassignOwner(ctx, ReassignRequest{
		ChangeSetID:     fx.changeSetID,
		UserID:          user,
		ExpectedVersion: version,
		TempID:          "tmp-1",
		NewOwnerName:    "John Smith",
		NewOwnerEmail:   "john@acme.test",
	})
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if newVersion != version+1 {
		t.Fatalf("expected version bump, got %d", newVersion)
	}

	_, saved, err := fx.service.GetChangeSet(ctx, fx.changeSetID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	for _, item := range saved {
		switch item.TempID {
		case "tmp-1", "tmp-2":
			if item.Owner.ResolutionStatus != entities.OwnerResolved {
				t.Fatalf("%s: expected resolved owner, got %s", item.TempID, item.Owner.ResolutionStatus)
			}
			if item.Owner.ResolvedUserID == nil {
				t.Fatalf("%s: expected member id on owner", item.TempID)
			}
		case "tmp-3":
			if item.Owner.Name != "Maria" {
				t.Fatalf("unrelated mention must not change, got %q", item.Owner.Name)
			}
		}
	}
}

func TestReassignOwnerCreatesContact(t *testing.T) {
	items := []entities.ProposedItem{acceptedItem("tmp-1", "somebody", entities.OwnerUnknown)}
	fx := newReviewFixture(t, items)
	ctx := context.Background()
	user := uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, user, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if _, err := fx.service.ReassignOwner(ctx, ReassignRequest{
		ChangeSetID:     fx.changeSetID,
		UserID:          user,
		ExpectedVersion: version,
		TempID:          "tmp-1",
		NewOwnerName:    "Dana Lee",
		NewOwnerEmail:   "Dana@Vendor.test",
		CreateContact:   true,
	}); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}

	if len(fx.identities.contacts) != 1 {
		t.Fatalf("expected one contact created, got %d", len(fx.identities.contacts))
	}
	if fx.identities.contacts[0].Email != "dana@vendor.test" {
		t.Fatalf("contact email not lowercased: %q", fx.identities.contacts[0].Email)
	}

	_, saved, err := fx.service.GetChangeSet(ctx, fx.changeSetID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if saved[0].Owner.ResolutionStatus != entities.OwnerResolved || saved[0].Owner.ResolvedContactID == nil {
		t.Fatalf("expected owner resolved to the new contact, got %+v", saved[0].Owner)
	}
}

func TestReassignOwnerRequiresLock(t *testing.T) {
	items := []entities.ProposedItem{acceptedItem("tmp-1", "Jhon", entities.OwnerNeedsConfirmation)}
	fx := newReviewFixture(t, items)

	_, err := fx.service.ReassignOwner(context.Background(), ReassignRequest{
		ChangeSetID:  fx.changeSetID,
		UserID:       uuid.New(),
		TempID:       "tmp-1",
		NewOwnerName: "John Smith",
	})
	if err == nil {
		t.Fatal("reassign without lock must fail")
	}
}

func TestPublishBlockedByOwnerStatus(t *testing.T) {
	items := []entities.ProposedItem{
		acceptedItem("tmp-1", "John Smith", entities.OwnerResolved),
		acceptedItem("tmp-2", "John Smith", entities.OwnerAmbiguous),
		acceptedItem("tmp-3", "Conference Room B", entities.OwnerConferenceRoom),
	}
	fx := newReviewFixture(t, items)
	ctx := context.Background()
	user := uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, user, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	err = fx.service.Publish(ctx, fx.changeSetID, user, version)
	if err == nil {
		t.Fatal("expected publish to be blocked")
	}
	if got, want := appErrCode(t, err), appErrCode(t, apperrors.ErrPublishBlocked(nil)); got != want {
		t.Fatalf("expected publish-blocked error, got code %d", got)
	}
	if fx.records.published != nil {
		t.Fatal("blocked publish must not touch the records")
	}

	// Rejecting the blocking items unblocks the publish.
	items[1].Accepted = false
	items[2].Accepted = false
	version, err = fx.service.SaveItems(ctx, fx.changeSetID, user, version, items)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := fx.service.Publish(ctx, fx.changeSetID, user, version); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestPublishLifecycle(t *testing.T) {
	targetID := uuid.New()
	due := "2026-04-01"
	items := []entities.ProposedItem{
		{
			TempID: "tmp-1", Kind: entities.KindActionItem, Operation: entities.OperationCreate,
			Title: "Fix login bug", Owner: entities.ProposedOwner{Name: "John Smith", ResolutionStatus: entities.OwnerResolved},
			Accepted: true, DueDate: &due, Priority: "high",
		},
		{
			TempID: "tmp-2", Kind: entities.KindActionItem, Operation: entities.OperationClose,
			TargetID: &targetID, Title: "Old task", Owner: entities.ProposedOwner{ResolutionStatus: entities.OwnerPlaceholder},
			Accepted: true,
		},
		{
			TempID: "tmp-3", Kind: entities.KindDecision, Operation: entities.OperationCreate,
			Title: "Pick vendor", Outcome: "approved",
			Owner:    entities.ProposedOwner{Name: "John Smith", ResolutionStatus: entities.OwnerResolved},
			Accepted: true,
		},
		{
			TempID: "tmp-4", Kind: entities.KindRisk, Operation: entities.OperationCreate,
			Title: "Rejected risk", Owner: entities.ProposedOwner{ResolutionStatus: entities.OwnerPlaceholder},
			Accepted: false,
		},
	}
	fx := newReviewFixture(t, items)
	ctx := context.Background()
	user := uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, user, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := fx.service.Publish(ctx, fx.changeSetID, user, version); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	batch := fx.records.published
	if batch == nil {
		t.Fatal("records were not published")
	}
	if len(batch.CreateActionItems) != 1 || batch.CreateActionItems[0].Title != "Fix login bug" {
		t.Fatalf("unexpected action item creates: %+v", batch.CreateActionItems)
	}
	if batch.CreateActionItems[0].DueDate == nil || batch.CreateActionItems[0].DueDate.Format("2006-01-02") != due {
		t.Fatalf("due date not carried: %v", batch.CreateActionItems[0].DueDate)
	}
	if len(batch.CloseActionItems) != 1 || batch.CloseActionItems[0] != targetID {
		t.Fatalf("unexpected closes: %v", batch.CloseActionItems)
	}
	if len(batch.CreateDecisions) != 1 || batch.CreateDecisions[0].Outcome != "approved" {
		t.Fatalf("unexpected decision creates: %+v", batch.CreateDecisions)
	}
	if len(batch.CreateRisks) != 0 {
		t.Fatal("rejected items must not publish")
	}

	meeting, err := fx.meetings.FindByID(ctx, fx.meetingID)
	if err != nil || meeting == nil {
		t.Fatalf("meeting lookup failed: %v", err)
	}
	if meeting.Status != entities.MeetingStatusPublished {
		t.Fatalf("meeting not marked published, status %s", meeting.Status)
	}

	cs, _, err := fx.service.GetChangeSet(ctx, fx.changeSetID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cs.RetiredAt == nil {
		t.Fatal("change set not retired after publish")
	}
}

func TestPublishRequiresHolderAndVersion(t *testing.T) {
	items := []entities.ProposedItem{acceptedItem("tmp-1", "John Smith", entities.OwnerResolved)}
	fx := newReviewFixture(t, items)
	ctx := context.Background()
	holder, other := uuid.New(), uuid.New()

	version, err := fx.service.AcquireLock(ctx, fx.changeSetID, holder, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := fx.service.Publish(ctx, fx.changeSetID, other, version); err == nil {
		t.Fatal("non-holder publish must fail")
	}
	if err := fx.service.Publish(ctx, fx.changeSetID, holder, version-1); err == nil {
		t.Fatal("stale-version publish must fail")
	}
}

func TestBuildPublishBatchUpdates(t *testing.T) {
	meeting := &entities.Meeting{ID: uuid.New(), ProjectID: uuid.New()}
	targetID := uuid.New()
	items := []entities.ProposedItem{
		{
			TempID: "tmp-1", Kind: entities.KindRisk, Operation: entities.OperationUpdate,
			TargetID: &targetID, Title: "Updated risk", Severity: "high", Likelihood: "medium",
			Owner:    entities.ProposedOwner{Name: "John", ResolutionStatus: entities.OwnerResolved},
			Accepted: true,
		},
		{
			TempID: "tmp-2", Kind: entities.KindDecision, Operation: entities.OperationClose,
			Title: "Close without target", Owner: entities.ProposedOwner{ResolutionStatus: entities.OwnerPlaceholder},
			Accepted: true,
		},
	}

	batch := BuildPublishBatch(meeting, items)

	if len(batch.UpdateRisks) != 1 || batch.UpdateRisks[0].ID != targetID {
		t.Fatalf("update must reuse the target id, got %+v", batch.UpdateRisks)
	}
	if len(batch.CloseDecisions) != 0 {
		t.Fatal("close without target must be dropped")
	}
}

func TestBuildPublishBatchUpdateWithoutTarget(t *testing.T) {
	meeting := &entities.Meeting{ID: uuid.New(), ProjectID: uuid.New()}
	items := []entities.ProposedItem{
		{
			TempID: "tmp-1", Kind: entities.KindActionItem, Operation: entities.OperationUpdate,
			Title:    "Update lost its target",
			Owner:    entities.ProposedOwner{Name: "John", ResolutionStatus: entities.OwnerResolved},
			Accepted: true,
		},
		{
			TempID: "tmp-2", Kind: entities.KindDecision, Operation: entities.OperationUpdate,
			Title: "Decision without target", Outcome: "approved",
			Owner:    entities.ProposedOwner{ResolutionStatus: entities.OwnerPlaceholder},
			Accepted: true,
		},
	}

	// An update whose target never parsed, or was blanked by an edit, must
	// publish as a create rather than crash.
	batch := BuildPublishBatch(meeting, items)

	if len(batch.UpdateActionItems) != 0 || len(batch.UpdateDecisions) != 0 {
		t.Fatal("updates without targets must not reach the update lists")
	}
	if len(batch.CreateActionItems) != 1 || batch.CreateActionItems[0].Title != "Update lost its target" {
		t.Fatalf("expected action item downgraded to create, got %+v", batch.CreateActionItems)
	}
	if len(batch.CreateDecisions) != 1 || batch.CreateDecisions[0].Outcome != "approved" {
		t.Fatalf("expected decision downgraded to create, got %+v", batch.CreateDecisions)
	}
}
