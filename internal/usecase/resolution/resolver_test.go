package resolution

import (
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

func testDirectory() (*Directory, uuid.UUID, uuid.UUID) {
	johnID := uuid.New()
	contactID := uuid.New()
	dir := &Directory{
		Members: []*entities.ProjectMember{
			{UserID: johnID, Name: "John Smith", Email: "john@acme.test"},
			{UserID: uuid.New(), Name: "Maria Garcia", Email: "maria@acme.test"},
		},
		Contacts: []*entities.ProjectContact{
			{ID: contactID, Name: "Dana Lee", Email: "dana@vendor.test"},
		},
		Attendees: []entities.Attendee{
			{Name: "John Smith", Email: "john@acme.test"},
			{Name: "Maria Garcia", Email: "maria@acme.test"},
			{Name: "Priya Patel"},
		},
	}
	return dir, johnID, contactID
}

func TestResolveNilMentionIsPlaceholder(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, _, _ := testDirectory()

	for _, mention := range []*entities.OwnerMention{nil, {Name: "  "}, {}} {
		owner := r.Resolve(mention, dir)
		if owner.ResolutionStatus != entities.OwnerPlaceholder {
			t.Fatalf("mention %+v: expected placeholder, got %s", mention, owner.ResolutionStatus)
		}
	}
}

func TestResolveConferenceRoom(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, _, _ := testDirectory()

	for _, name := range []string{"Conference Room B", "Zoom Room", "4th Floor Huddle"} {
		owner := r.Resolve(&entities.OwnerMention{Name: name}, dir)
		if owner.ResolutionStatus != entities.OwnerConferenceRoom {
			t.Fatalf("%q: expected conference_room, got %s", name, owner.ResolutionStatus)
		}
		if !owner.ResolutionStatus.BlocksPublish() {
			t.Fatalf("%q: conference room must block publish", name)
		}
	}
}

func TestResolveByEmailExact(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, johnID, contactID := testDirectory()

	owner := r.Resolve(&entities.OwnerMention{Name: "J. Smith", Email: "JOHN@acme.test"}, dir)
	if owner.ResolutionStatus != entities.OwnerResolved {
		t.Fatalf("expected resolved, got %s", owner.ResolutionStatus)
	}
	if owner.ResolvedUserID == nil || *owner.ResolvedUserID != johnID {
		t.Fatalf("expected member match %s, got %v", johnID, owner.ResolvedUserID)
	}

	owner = r.Resolve(&entities.OwnerMention{Name: "Dana", Email: "dana@vendor.test"}, dir)
	if owner.ResolvedContactID == nil || *owner.ResolvedContactID != contactID {
		t.Fatalf("expected contact match %s, got %v", contactID, owner.ResolvedContactID)
	}
}

func TestResolveByNameExact(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, johnID, _ := testDirectory()

	owner := r.Resolve(&entities.OwnerMention{Name: "john smith"}, dir)
	if owner.ResolutionStatus != entities.OwnerResolved {
		t.Fatalf("expected resolved, got %s", owner.ResolutionStatus)
	}
	if owner.ResolvedUserID == nil || *owner.ResolvedUserID != johnID {
		t.Fatalf("expected member %s, got %v", johnID, owner.ResolvedUserID)
	}
	if owner.Name != "john smith" {
		t.Fatalf("spoken name must be preserved, got %q", owner.Name)
	}
}

func TestResolveDuplicateNamesAmbiguous(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, _, _ := testDirectory()
	dir.Contacts = append(dir.Contacts, &entities.ProjectContact{ID: uuid.New(), Name: "John Smith"})

	owner := r.Resolve(&entities.OwnerMention{Name: "John Smith"}, dir)
	if owner.ResolutionStatus != entities.OwnerAmbiguous {
		t.Fatalf("expected ambiguous, got %s", owner.ResolutionStatus)
	}
	if len(owner.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", owner.Candidates)
	}
	if !owner.ResolutionStatus.BlocksPublish() {
		t.Fatal("ambiguous owner must block publish")
	}
}

func TestResolveFuzzyViaAttendeeEmail(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, johnID, _ := testDirectory()

	// Misspelled, one edit away from the attendee "John Smith", whose
	// email re-resolves to the member.
	owner := r.Resolve(&entities.OwnerMention{Name: "Jhon Smith"}, dir)
	if owner.ResolutionStatus != entities.OwnerResolved {
		t.Fatalf("expected resolved via attendee email, got %s", owner.ResolutionStatus)
	}
	if owner.ResolvedUserID == nil || *owner.ResolvedUserID != johnID {
		t.Fatalf("expected member %s, got %v", johnID, owner.ResolvedUserID)
	}
}

func TestResolveExactAttendeeNameNotInDirectory(t *testing.T) {
	r := NewResolver(nil, nil)
	memberID := uuid.New()
	dir := &Directory{
		Members: []*entities.ProjectMember{
			{UserID: memberID, Name: "Jonathan Smith", Email: "jon@acme.test"},
		},
		Attendees: []entities.Attendee{
			// The invite uses a nickname, so no directory name matches.
			{Name: "John Smith", Email: "jon@acme.test"},
		},
	}

	// Exact attendee spelling resolves through the attendee email, the
	// same as a misspelling would.
	for _, name := range []string{"John Smith", "Jon Smith"} {
		owner := r.Resolve(&entities.OwnerMention{Name: name}, dir)
		if owner.ResolutionStatus != entities.OwnerResolved {
			t.Fatalf("%q: expected resolved via attendee email, got %s", name, owner.ResolutionStatus)
		}
		if owner.ResolvedUserID == nil || *owner.ResolvedUserID != memberID {
			t.Fatalf("%q: expected member %s, got %v", name, memberID, owner.ResolvedUserID)
		}
	}
}

func TestResolveExactAttendeeNameWithoutEmail(t *testing.T) {
	r := NewResolver(nil, nil)
	dir := &Directory{
		Attendees: []entities.Attendee{{Name: "Priya Patel"}},
	}

	owner := r.Resolve(&entities.OwnerMention{Name: "Priya Patel"}, dir)
	if owner.ResolutionStatus != entities.OwnerNeedsConfirmation {
		t.Fatalf("expected needs_confirmation, got %s", owner.ResolutionStatus)
	}
	if len(owner.Candidates) != 1 || owner.Candidates[0] != "Priya Patel" {
		t.Fatalf("expected roster candidate, got %v", owner.Candidates)
	}
}

func TestResolveFuzzyNeedsConfirmation(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, _, _ := testDirectory()

	// "Priya Patel" is on the roster with no email and no directory entry.
	owner := r.Resolve(&entities.OwnerMention{Name: "Prya Patel"}, dir)
	if owner.ResolutionStatus != entities.OwnerNeedsConfirmation {
		t.Fatalf("expected needs_confirmation, got %s", owner.ResolutionStatus)
	}
	if len(owner.Candidates) != 1 || owner.Candidates[0] != "Priya Patel" {
		t.Fatalf("expected roster candidate, got %v", owner.Candidates)
	}
	if owner.ResolutionStatus.BlocksPublish() {
		t.Fatal("needs_confirmation should not block publish")
	}
}

func TestResolveFuzzyDistanceBound(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, _, _ := testDirectory()

	// Four edits away from anything on the roster.
	owner := r.Resolve(&entities.OwnerMention{Name: "Pradeep Patel"}, dir)
	if owner.ResolutionStatus != entities.OwnerUnknown {
		t.Fatalf("expected unknown beyond the distance bound, got %s", owner.ResolutionStatus)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewResolver(nil, nil)
	dir, _, _ := testDirectory()

	owner := r.Resolve(&entities.OwnerMention{Name: "Zebulon Quartermaine"}, dir)
	if owner.ResolutionStatus != entities.OwnerUnknown {
		t.Fatalf("expected unknown, got %s", owner.ResolutionStatus)
	}
	if owner.ResolutionStatus.BlocksPublish() {
		t.Fatal("unknown owner should not block publish")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"john", "john", 0},
		{"jhon", "john", 2},
		{"jon", "john", 1},
		{"maria", "marla", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
