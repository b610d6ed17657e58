package extraction

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

const systemPrompt = `You are a meeting analyst. You read raw meeting transcripts and produce structured records: a recap, action items, decisions, and risks. You respond with a single JSON object and nothing else. Never invent facts that are not supported by the transcript.`

// descriptionTruncateLen bounds open-item descriptions in the prompt so a
// large backlog cannot crowd out the transcript.
const descriptionTruncateLen = 200

// categoryEmphasis maps each meeting category to extra extraction
// instructions appended to the prompt.
var categoryEmphasis = map[entities.MeetingCategory]string{
	entities.CategoryProject: `This is a project status meeting. Focus on task progress: extract action items with owners and due dates, and close items that participants report as done.`,
	entities.CategoryGovernance: `This is a governance meeting. Focus on formal decisions: every decision MUST include an "outcome" field with one of "approved", "rejected" or "deferred". Record who owns each decision.`,
	entities.CategoryDiscovery: `This is a discovery meeting. Focus on findings and risks: extract risks with severity and likelihood, and capture open questions in outstanding_topics.`,
	entities.CategoryAlignment: `This is a cross-team alignment meeting. Include a "tone" object with an overall assessment and a per_participant map covering every speaker, plus any agreements reached as decisions.`,
	entities.CategoryRemediation: `This is an incident remediation meeting. Include a "fishbone" object: the problem statement and cause categories, each with at least one cause. Extract remediation tasks as action items.`,
}

// PromptInput carries everything the prompt builder needs.
type PromptInput struct {
	Meeting   *entities.Meeting
	Attendees []entities.Attendee
	OpenItems []entities.OpenItem
	// OpenItemLimit caps how many open items are serialized into the prompt.
	OpenItemLimit int
}

// BuildExtractionPrompt assembles the full user prompt for one meeting.
// It is a pure function of its input: same input, same prompt.
func BuildExtractionPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("# Meeting\n")
	fmt.Fprintf(&b, "Title: %s\n", in.Meeting.Title)
	fmt.Fprintf(&b, "Category: %s\n", in.Meeting.Category)
	fmt.Fprintf(&b, "Date: %s\n", in.Meeting.OccurredAt.Format("2006-01-02"))

	if len(in.Attendees) > 0 {
		b.WriteString("\n# Attendees\n")
		for _, a := range in.Attendees {
			if a.Email != "" {
				fmt.Fprintf(&b, "- %s <%s>\n", a.Name, a.Email)
			} else {
				fmt.Fprintf(&b, "- %s\n", a.Name)
			}
		}
	}

	openItems := in.OpenItems
	if in.OpenItemLimit > 0 && len(openItems) > in.OpenItemLimit {
		openItems = openItems[:in.OpenItemLimit]
	}
	if len(openItems) > 0 {
		b.WriteString("\n# Existing open items\n")
		b.WriteString("When the transcript refers to one of these, emit an update or close operation with its id as target_id instead of creating a duplicate.\n")
		for _, item := range openItems {
			desc := item.Description
			if len(desc) > descriptionTruncateLen {
				desc = desc[:descriptionTruncateLen] + "..."
			}
			owner := item.OwnerName
			if owner == "" {
				owner = "unassigned"
			}
			fmt.Fprintf(&b, "- [%s] id=%s status=%s owner=%s: %s", item.Kind, item.ID, item.Status, owner, item.Title)
			if desc != "" {
				fmt.Fprintf(&b, " (%s)", desc)
			}
			b.WriteString("\n")
		}
	}

	if emphasis, ok := categoryEmphasis[in.Meeting.Category]; ok {
		b.WriteString("\n# Focus\n")
		b.WriteString(emphasis)
		b.WriteString("\n")
	}

	b.WriteString("\n# Output format\n")
	b.WriteString(outputFormatInstructions)

	b.WriteString("\n# Transcript\n")
	b.WriteString(in.Meeting.Transcript)

	return b.String()
}

const outputFormatInstructions = `Respond with one JSON object using exactly this shape:
{
  "schema_version": "` + entities.CurrentSchemaVersion + `",
  "meeting": {"title": "...", "category": "...", "date": "YYYY-MM-DD"},
  "recap": {
    "summary": "2-4 sentence narrative summary (required)",
    "highlights": ["..."],
    "topics": ["..."],
    "outstanding_topics": ["..."]
  },
  "tone": {"overall": "...", "per_participant": {"Name": "..."}},
  "action_items": [
    {"operation": "create|update|close", "target_id": "uuid when updating or closing",
     "title": "...", "description": "...",
     "owner": {"name": "...", "email": "if spoken"},
     "due_date": "YYYY-MM-DD or null", "priority": "low|medium|high|urgent",
     "evidence_quotes": ["verbatim transcript lines supporting this item"]}
  ],
  "decisions": [
    {"operation": "create", "title": "...", "description": "...",
     "outcome": "approved|rejected|deferred", "owner": {"name": "..."},
     "evidence_quotes": ["..."]}
  ],
  "risks": [
    {"operation": "create", "title": "...", "description": "...",
     "severity": "low|medium|high|critical", "likelihood": "low|medium|high",
     "mitigation": "...", "owner": {"name": "..."}, "evidence_quotes": ["..."]}
  ],
  "fishbone": {"problem": "...", "categories": [{"name": "...", "causes": ["..."]}]}
}
Omit "tone" and "fishbone" unless the focus section asks for them. Omit empty optional fields. Dates must be ISO format or null when not mentioned.`

// BuildRepairPrompt asks the model to fix a previous output that failed
// schema validation, listing the violated paths.
func BuildRepairPrompt(rawOutput string, violations []FieldViolation) string {
	var b strings.Builder
	b.WriteString("The following JSON does not satisfy the required schema. Fix ONLY the listed problems and return the complete corrected JSON object. Do not add, remove or rephrase anything else.\n\n")
	b.WriteString("# Problems\n")
	for _, v := range violations {
		fmt.Fprintf(&b, "- %s: %s\n", v.Path, v.Message)
	}
	b.WriteString("\n# JSON\n")
	b.WriteString(rawOutput)
	return b.String()
}
