package extraction

import (
	"strings"
	"time"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// dateLayouts are the input formats accepted for model-emitted dates, tried
// in order. The canonical output layout is ISO 2006-01-02.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01-02T15:04:05Z07:00",
}

// timeLayouts are the input formats accepted for model-emitted times of
// day. The canonical output layout is HH:MM:SS.
var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04PM",
}

// Normalize canonicalizes an extraction output in place: dates to ISO
// format, times to HH:MM:SS, enums to lower case, stray whitespace
// trimmed. It is idempotent, so running it on already-normalized output
// changes nothing.
func Normalize(out *entities.ExtractionOutput) {
	out.SchemaVersion = strings.TrimSpace(out.SchemaVersion)
	out.Meeting.Category = normalizeEnum(out.Meeting.Category)
	out.Meeting.Date = normalizeDate(out.Meeting.Date)
	out.Meeting.Duration = normalizeTime(out.Meeting.Duration)
	out.Recap.Summary = strings.TrimSpace(out.Recap.Summary)

	for i := range out.ActionItems {
		item := &out.ActionItems[i]
		item.Operation = entities.ItemOperation(normalizeEnum(string(item.Operation)))
		item.Title = strings.TrimSpace(item.Title)
		item.Priority = normalizeEnum(item.Priority)
		item.DueDate = normalizeDate(item.DueDate)
		normalizeOwner(item.Owner)
	}

	for i := range out.Decisions {
		item := &out.Decisions[i]
		item.Operation = entities.ItemOperation(normalizeEnum(string(item.Operation)))
		item.Title = strings.TrimSpace(item.Title)
		item.Outcome = normalizeEnum(item.Outcome)
		normalizeOwner(item.Owner)
	}

	for i := range out.Risks {
		item := &out.Risks[i]
		item.Operation = entities.ItemOperation(normalizeEnum(string(item.Operation)))
		item.Title = strings.TrimSpace(item.Title)
		item.Severity = normalizeEnum(item.Severity)
		item.Likelihood = normalizeEnum(item.Likelihood)
		normalizeOwner(item.Owner)
	}

	if out.Fishbone != nil {
		out.Fishbone.Problem = strings.TrimSpace(out.Fishbone.Problem)
		for i := range out.Fishbone.Categories {
			out.Fishbone.Categories[i].Name = strings.TrimSpace(out.Fishbone.Categories[i].Name)
		}
	}
}

func normalizeOwner(owner *entities.OwnerMention) {
	if owner == nil {
		return
	}
	owner.Name = strings.TrimSpace(owner.Name)
	owner.Email = strings.ToLower(strings.TrimSpace(owner.Email))
}

// normalizeEnum lowercases an enum value and canonicalizes separators, so
// "In_Progress" and "in progress" collapse to one spelling, then maps a
// few common model synonyms onto canonical values.
func normalizeEnum(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.Join(strings.Fields(v), "_")
	switch v {
	case "closed", "complete", "completed", "done":
		return string(entities.OperationClose)
	case "in_progress", "ongoing":
		return string(entities.OperationUpdate)
	case "new", "add":
		return string(entities.OperationCreate)
	case "accept", "accepted":
		return "approved"
	case "decline", "declined", "denied":
		return "rejected"
	case "postponed", "tabled":
		return "deferred"
	}
	return v
}

// normalizeDate parses a model-emitted date in any accepted layout and
// reformats it as ISO 2006-01-02. Unparseable or empty dates become nil
// rather than failing validation on a cosmetic field.
func normalizeDate(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// normalizeTime parses a model-emitted time of day and reformats it as
// HH:MM:SS. Unparseable or empty values become nil.
func normalizeTime(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			canonical := t.Format("15:04:05")
			return &canonical
		}
	}
	return nil
}
