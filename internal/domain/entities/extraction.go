package entities

// CurrentSchemaVersion is the extraction output schema this build understands.
const CurrentSchemaVersion = "v2"

// ItemOperation says what an extracted item does to the live records.
type ItemOperation string

const (
	OperationCreate ItemOperation = "create"
	OperationUpdate ItemOperation = "update"
	OperationClose  ItemOperation = "close"
)

// IsValid reports whether the operation is a known value.
func (o ItemOperation) IsValid() bool {
	return o == OperationCreate || o == OperationUpdate || o == OperationClose
}

// OwnerMention is how the model referred to an owner in the transcript,
// before any resolution against members or contacts.
type OwnerMention struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ExtractionOutput is the complete structured result of one extraction call.
// Field requirements vary by meeting category; the validator enforces those.
type ExtractionOutput struct {
	SchemaVersion string        `json:"schema_version" validate:"required"`
	Meeting       MeetingInfo   `json:"meeting" validate:"required"`
	Recap         Recap         `json:"recap" validate:"required"`
	Tone          *ToneAnalysis `json:"tone,omitempty"`

	ActionItems []ExtractedActionItem `json:"action_items" validate:"dive"`
	Decisions   []ExtractedDecision   `json:"decisions" validate:"dive"`
	Risks       []ExtractedRisk       `json:"risks" validate:"dive"`

	Fishbone *FishboneOutline `json:"fishbone,omitempty"`
}

// MeetingInfo echoes back what the model understood about the meeting.
type MeetingInfo struct {
	Title    string   `json:"title"`
	Category string   `json:"category" validate:"required"`
	Date     *string  `json:"date,omitempty"` // normalized to YYYY-MM-DD
	Duration *string  `json:"duration,omitempty"`
	Speakers []string `json:"speakers,omitempty"`
}

// Recap is the narrative portion of the extraction.
type Recap struct {
	Summary           string   `json:"summary" validate:"required"`
	Highlights        []string `json:"highlights,omitempty"`
	Topics            []string `json:"topics,omitempty"`
	OutstandingTopics []string `json:"outstanding_topics,omitempty"`
}

// ToneAnalysis is required for alignment meetings, per participant.
type ToneAnalysis struct {
	Overall        string            `json:"overall"`
	PerParticipant map[string]string `json:"per_participant,omitempty"`
}

// ExtractedActionItem is one action item proposed by the model.
type ExtractedActionItem struct {
	Operation      ItemOperation `json:"operation" validate:"required"`
	TargetID       *string       `json:"target_id,omitempty"` // required for update/close
	Title          string        `json:"title" validate:"required"`
	Description    string        `json:"description"`
	Owner          *OwnerMention `json:"owner,omitempty"`
	DueDate        *string       `json:"due_date,omitempty"` // normalized to YYYY-MM-DD
	Priority       string        `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	EvidenceQuotes []string      `json:"evidence_quotes,omitempty"`
}

// ExtractedDecision is one decision proposed by the model.
// Governance meetings require a non-empty outcome.
type ExtractedDecision struct {
	Operation      ItemOperation `json:"operation" validate:"required"`
	TargetID       *string       `json:"target_id,omitempty"`
	Title          string        `json:"title" validate:"required"`
	Description    string        `json:"description"`
	Outcome        string        `json:"outcome,omitempty" validate:"omitempty,oneof=approved rejected deferred"`
	Owner          *OwnerMention `json:"owner,omitempty"`
	EvidenceQuotes []string      `json:"evidence_quotes,omitempty"`
}

// ExtractedRisk is one risk proposed by the model.
type ExtractedRisk struct {
	Operation      ItemOperation `json:"operation" validate:"required"`
	TargetID       *string       `json:"target_id,omitempty"`
	Title          string        `json:"title" validate:"required"`
	Description    string        `json:"description"`
	Severity       string        `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Likelihood     string        `json:"likelihood,omitempty" validate:"omitempty,oneof=low medium high"`
	Mitigation     string        `json:"mitigation,omitempty"`
	Owner          *OwnerMention `json:"owner,omitempty"`
	EvidenceQuotes []string      `json:"evidence_quotes,omitempty"`
}

// FishboneOutline is the cause analysis required for remediation meetings.
type FishboneOutline struct {
	Problem    string             `json:"problem" validate:"required"`
	Categories []FishboneCategory `json:"categories" validate:"required,min=1,dive"`
}

// FishboneCategory groups causes under one branch of the diagram.
type FishboneCategory struct {
	Name   string   `json:"name" validate:"required"`
	Causes []string `json:"causes" validate:"required,min=1"`
}

// ItemCount returns the total number of extracted items across all kinds.
func (o *ExtractionOutput) ItemCount() int {
	return len(o.ActionItems) + len(o.Decisions) + len(o.Risks)
}
