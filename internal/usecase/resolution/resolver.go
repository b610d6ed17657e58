package resolution

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
)

// fuzzyDistanceMax is the largest edit distance still treated as a
// probable misspelling of a roster name.
const fuzzyDistanceMax = 2

// roomKeywords flag owner mentions that name a place, not a person.
// Transcription tools routinely attribute speech to the room device.
var roomKeywords = []string{
	"conference room", "meeting room", "board room", "boardroom",
	"room ", "huddle", "auditorium", "zoom room", "teams room",
}

// Resolver maps owner mentions from transcripts onto project members and
// contacts.
type Resolver struct {
	identityRepo repositories.IdentityRepository
	logger       *zap.Logger
}

// NewResolver creates an owner resolver.
func NewResolver(identityRepo repositories.IdentityRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		identityRepo: identityRepo,
		logger:       logger,
	}
}

// Directory is the loaded identity set for one project, so resolving a
// batch of items costs two queries total.
type Directory struct {
	Members   []*entities.ProjectMember
	Contacts  []*entities.ProjectContact
	Attendees []entities.Attendee
}

// LoadDirectory fetches members and contacts for a project.
func (r *Resolver) LoadDirectory(ctx context.Context, projectID uuid.UUID, attendees []entities.Attendee) (*Directory, error) {
	members, err := r.identityRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	contacts, err := r.identityRepo.ListContacts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Directory{
		Members:   members,
		Contacts:  contacts,
		Attendees: attendees,
	}, nil
}

// Resolve classifies one owner mention against the directory.
//
// Resolution order: room detection, exact email, exact name (case
// insensitive), then fuzzy match against the attendee roster. Email wins
// over name because emails are unique; names are not.
func (r *Resolver) Resolve(mention *entities.OwnerMention, dir *Directory) entities.ProposedOwner {
	if mention == nil || (strings.TrimSpace(mention.Name) == "" && strings.TrimSpace(mention.Email) == "") {
		return entities.ProposedOwner{ResolutionStatus: entities.OwnerPlaceholder}
	}

	owner := entities.ProposedOwner{
		Name:  strings.TrimSpace(mention.Name),
		Email: strings.ToLower(strings.TrimSpace(mention.Email)),
	}

	if isConferenceRoom(owner.Name) {
		owner.ResolutionStatus = entities.OwnerConferenceRoom
		return owner
	}

	if owner.Email != "" {
		if resolved, ok := r.resolveByEmail(owner.Email, dir); ok {
			resolved.Name = owner.Name
			resolved.Email = owner.Email
			return resolved
		}
	}

	if owner.Name != "" {
		if resolved, ok := r.resolveByName(owner.Name, dir); ok {
			resolved.Name = owner.Name
			resolved.Email = owner.Email
			return resolved
		}

		if resolved, ok := r.resolveFuzzy(owner.Name, dir); ok {
			resolved.Name = owner.Name
			resolved.Email = owner.Email
			return resolved
		}
	}

	owner.ResolutionStatus = entities.OwnerUnknown
	return owner
}

func (r *Resolver) resolveByEmail(email string, dir *Directory) (entities.ProposedOwner, bool) {
	for _, m := range dir.Members {
		if strings.EqualFold(m.Email, email) {
			userID := m.UserID
			return entities.ProposedOwner{
				ResolvedUserID:   &userID,
				ResolutionStatus: entities.OwnerResolved,
			}, true
		}
	}
	for _, c := range dir.Contacts {
		if c.Email != "" && strings.EqualFold(c.Email, email) {
			contactID := c.ID
			return entities.ProposedOwner{
				ResolvedContactID: &contactID,
				ResolutionStatus:  entities.OwnerResolved,
			}, true
		}
	}
	return entities.ProposedOwner{}, false
}

func (r *Resolver) resolveByName(name string, dir *Directory) (entities.ProposedOwner, bool) {
	var (
		matchedUserIDs    []uuid.UUID
		matchedContactIDs []uuid.UUID
		candidates        []string
	)

	for _, m := range dir.Members {
		if strings.EqualFold(m.Name, name) {
			matchedUserIDs = append(matchedUserIDs, m.UserID)
			candidates = append(candidates, m.Name)
		}
	}
	for _, c := range dir.Contacts {
		if strings.EqualFold(c.Name, name) {
			matchedContactIDs = append(matchedContactIDs, c.ID)
			candidates = append(candidates, c.Name)
		}
	}

	total := len(matchedUserIDs) + len(matchedContactIDs)
	switch {
	case total == 0:
		return entities.ProposedOwner{}, false
	case total > 1:
		return entities.ProposedOwner{
			ResolutionStatus: entities.OwnerAmbiguous,
			Candidates:       candidates,
		}, true
	case len(matchedUserIDs) == 1:
		userID := matchedUserIDs[0]
		return entities.ProposedOwner{
			ResolvedUserID:   &userID,
			ResolutionStatus: entities.OwnerResolved,
		}, true
	default:
		contactID := matchedContactIDs[0]
		return entities.ProposedOwner{
			ResolvedContactID: &contactID,
			ResolutionStatus:  entities.OwnerResolved,
		}, true
	}
}

// resolveFuzzy matches a name against the attendee roster allowing small
// edit distances, catching transcription misspellings. A fuzzy hit whose
// attendee carries an email resolves through that email; otherwise the
// reviewer confirms the guess.
func (r *Resolver) resolveFuzzy(name string, dir *Directory) (entities.ProposedOwner, bool) {
	var (
		best         *entities.Attendee
		bestDistance = fuzzyDistanceMax + 1
		tied         bool
	)

	// Distance 0 counts as a hit: the roster can name someone the
	// directory lookup did not find.
	lowered := strings.ToLower(name)
	for i := range dir.Attendees {
		a := &dir.Attendees[i]
		d := levenshtein(lowered, strings.ToLower(a.Name))
		if d < bestDistance {
			best = a
			bestDistance = d
			tied = false
		} else if d == bestDistance {
			tied = true
		}
	}

	if best == nil || bestDistance > fuzzyDistanceMax {
		return entities.ProposedOwner{}, false
	}
	if tied {
		return entities.ProposedOwner{ResolutionStatus: entities.OwnerAmbiguous}, true
	}

	if best.Email != "" {
		if resolved, ok := r.resolveByEmail(strings.ToLower(best.Email), dir); ok {
			if r.logger != nil {
				r.logger.Info("✅ Fuzzy owner match resolved via attendee email",
					zap.String("mention", name),
					zap.String("attendee", best.Name),
				)
			}
			return resolved, true
		}
	}

	return entities.ProposedOwner{
		ResolutionStatus: entities.OwnerNeedsConfirmation,
		Candidates:       []string{best.Name},
	}, true
}

func isConferenceRoom(name string) bool {
	lowered := strings.ToLower(name)
	for _, kw := range roomKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// levenshtein computes edit distance with the two-row method.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
