package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// FieldViolation names one schema problem in a model output.
type FieldViolation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// OutputValidator checks extraction outputs against the schema plus the
// category-conditional rules tag-based validation cannot express.
type OutputValidator struct {
	validate *validator.Validate
}

// NewOutputValidator creates an output validator.
func NewOutputValidator() *OutputValidator {
	return &OutputValidator{validate: validator.New()}
}

// Validate returns every violation found, empty when the output conforms.
// Validation is deterministic: the same output yields the same violations
// in the same order.
func (v *OutputValidator) Validate(out *entities.ExtractionOutput, category entities.MeetingCategory) []FieldViolation {
	var violations []FieldViolation

	if err := v.validate.Struct(out); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				violations = append(violations, FieldViolation{
					Path:    ve.Namespace(),
					Message: fmt.Sprintf("failed %q constraint", ve.Tag()),
				})
			}
		} else {
			violations = append(violations, FieldViolation{Path: "$", Message: err.Error()})
		}
	}

	if out.SchemaVersion != "" && out.SchemaVersion != entities.CurrentSchemaVersion {
		violations = append(violations, FieldViolation{
			Path:    "schema_version",
			Message: fmt.Sprintf("unsupported version %q, expected %q", out.SchemaVersion, entities.CurrentSchemaVersion),
		})
	}

	violations = append(violations, v.validateOperations(out)...)
	violations = append(violations, v.validateCategory(out, category)...)

	return violations
}

// validateOperations checks the operation/target_id pairing on every item.
func (v *OutputValidator) validateOperations(out *entities.ExtractionOutput) []FieldViolation {
	var violations []FieldViolation

	check := func(path string, op entities.ItemOperation, targetID *string) {
		if !op.IsValid() {
			violations = append(violations, FieldViolation{
				Path:    path + ".operation",
				Message: fmt.Sprintf("unknown operation %q", op),
			})
			return
		}
		if op == entities.OperationCreate {
			return
		}
		if targetID == nil || *targetID == "" {
			violations = append(violations, FieldViolation{
				Path:    path + ".target_id",
				Message: fmt.Sprintf("required for %q operations", op),
			})
			return
		}
		if _, err := uuid.Parse(*targetID); err != nil {
			violations = append(violations, FieldViolation{
				Path:    path + ".target_id",
				Message: fmt.Sprintf("%q is not an open item id", *targetID),
			})
		}
	}

	for i, item := range out.ActionItems {
		check(fmt.Sprintf("action_items[%d]", i), item.Operation, item.TargetID)
	}
	for i, item := range out.Decisions {
		check(fmt.Sprintf("decisions[%d]", i), item.Operation, item.TargetID)
	}
	for i, item := range out.Risks {
		check(fmt.Sprintf("risks[%d]", i), item.Operation, item.TargetID)
	}
	return violations
}

// validateCategory enforces per-category requirements: a fishbone exactly
// when the meeting is remediation, outcomes on governance decisions, and
// per-participant tone for alignment meetings.
func (v *OutputValidator) validateCategory(out *entities.ExtractionOutput, category entities.MeetingCategory) []FieldViolation {
	var violations []FieldViolation

	switch category {
	case entities.CategoryRemediation:
		if out.Fishbone == nil {
			violations = append(violations, FieldViolation{
				Path:    "fishbone",
				Message: "required for remediation meetings",
			})
		}
	case entities.CategoryGovernance:
		for i, d := range out.Decisions {
			if d.Operation == entities.OperationCreate && d.Outcome == "" {
				violations = append(violations, FieldViolation{
					Path:    fmt.Sprintf("decisions[%d].outcome", i),
					Message: "required for governance decisions",
				})
			}
		}
	case entities.CategoryAlignment:
		if out.Tone == nil {
			violations = append(violations, FieldViolation{
				Path:    "tone",
				Message: "required for alignment meetings",
			})
		} else if len(out.Tone.PerParticipant) == 0 {
			violations = append(violations, FieldViolation{
				Path:    "tone.per_participant",
				Message: "must cover every speaker in alignment meetings",
			})
		}
	}

	if category != entities.CategoryRemediation && out.Fishbone != nil {
		violations = append(violations, FieldViolation{
			Path:    "fishbone",
			Message: fmt.Sprintf("only allowed for remediation meetings, got category %q", category),
		})
	}

	return violations
}

// ViolationPaths flattens violations into the path list carried by schema
// violation errors.
func ViolationPaths(violations []FieldViolation) []string {
	paths := make([]string, len(violations))
	for i, v := range violations {
		paths[i] = v.Path
	}
	return paths
}

// ParseAndValidate turns raw model output into a conforming extraction
// output. Layered JSON extraction, normalization, validation, then at most
// one repair round trip; a still-violating result fails outward with the
// violated paths.
func ParseAndValidate(ctx context.Context, orch *Orchestrator, v *OutputValidator, raw string, category entities.MeetingCategory, logger *zap.Logger) (*entities.ExtractionOutput, error) {
	out, violations, err := parseOnce(v, raw, category)
	if err == nil && len(violations) == 0 {
		return out, nil
	}
	if err != nil {
		violations = []FieldViolation{{Path: "$", Message: err.Error()}}
	}

	if logger != nil {
		logger.Warn("🔧 Extraction output violates schema, attempting repair",
			zap.Int("violation_count", len(violations)),
			zap.Strings("paths", ViolationPaths(violations)),
		)
	}

	repaired, repairErr := orch.Repair(ctx, raw, violations)
	if repairErr != nil {
		return nil, repairErr
	}

	out, violations, err = parseOnce(v, repaired, category)
	if err != nil {
		return nil, apperrors.ErrRepairFailed(err)
	}
	if len(violations) > 0 {
		return nil, apperrors.ErrSchemaViolation(ViolationPaths(violations), nil)
	}
	return out, nil
}

// parseOnce runs one extract-parse-normalize-validate pass.
func parseOnce(v *OutputValidator, raw string, category entities.MeetingCategory) (*entities.ExtractionOutput, []FieldViolation, error) {
	jsonText, ok := ExtractJSON(raw)
	if !ok {
		return nil, nil, fmt.Errorf("no JSON object found in model output")
	}

	var out entities.ExtractionOutput
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return nil, nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	Normalize(&out)
	return &out, v.Validate(&out, category), nil
}
