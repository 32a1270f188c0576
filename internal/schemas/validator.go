package schemas

import (
	"encoding/json"
	"time"

	"github.com/jonathan/showcase-forge/internal/types"
)

// Outcome is the result of validating one candidate.
type Outcome struct {
	Valid    bool
	Value    types.StageOutput
	Errors   []FieldError
	Repaired bool
}

// Err returns the outcome's errors as a *ValidationError, or nil when valid.
func (o *Outcome) Err(stage types.StageID) error {
	if o.Valid {
		return nil
	}
	return &ValidationError{Stage: stage, Errors: o.Errors}
}

// Messages renders the field errors as "field: message" strings.
func (o *Outcome) Messages() []string {
	out := make([]string, 0, len(o.Errors))
	for _, fe := range o.Errors {
		out = append(out, fe.String())
	}
	return out
}

// RepairContext supplies the metadata injected during repair.
type RepairContext struct {
	Version   string
	RequestID string
	Now       time.Time
}

// Validate checks the candidate against the stage schema. The returned value
// is decoded into the stage's typed output, which drops unknown fields.
// Invalid candidates still get a best-effort Value when they decode.
func (v *Validator) Validate(stage types.StageID, candidate map[string]any) (*Outcome, error) {
	s, err := v.schema(stage)
	if err != nil {
		return nil, err
	}
	return validateWith(s, stage, candidate)
}

// ValidateWithRepair validates and, on failure, applies one deterministic
// repair pass before validating once more. Valid input is returned unchanged.
func (v *Validator) ValidateWithRepair(stage types.StageID, candidate map[string]any, rc RepairContext) (*Outcome, error) {
	s, err := v.schema(stage)
	if err != nil {
		return nil, err
	}

	first, err := validateWith(s, stage, candidate)
	if err != nil || first.Valid {
		return first, err
	}

	repaired := deepCopyMap(candidate)
	if repaired == nil {
		return first, nil
	}
	changed := InjectMetadata(repaired, metadataFor(stage, rc))
	if repairDocument(s.raw, repaired) {
		changed = true
	}
	if !changed {
		return first, nil
	}

	second, err := validateWith(s, stage, repaired)
	if err != nil {
		return nil, err
	}
	second.Repaired = true
	return second, nil
}

func validateWith(s *stageSchema, stage types.StageID, candidate map[string]any) (*Outcome, error) {
	if candidate == nil {
		return &Outcome{Errors: []FieldError{{Field: "(root)", Message: "document is empty"}}}, nil
	}

	fieldErrs, err := s.check(candidate)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Valid: len(fieldErrs) == 0, Errors: fieldErrs}

	value, err := decodeOutput(stage, candidate)
	if err != nil {
		out.Valid = false
		out.Errors = append(out.Errors, FieldError{Field: "(root)", Message: err.Error()})
		return out, nil
	}
	out.Value = value
	return out, nil
}

// decodeOutput converts a generic document into the stage's typed output
func decodeOutput(stage types.StageID, doc map[string]any) (types.StageOutput, error) {
	out := types.NewOutput(stage)
	if out == nil {
		return nil, &ParseError{Message: "stage has no structured output"}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &ParseError{Message: "failed to encode document", Cause: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, &ParseError{Message: "document does not match output type", Cause: err}
	}
	return out, nil
}

func metadataFor(stage types.StageID, rc RepairContext) types.Metadata {
	now := rc.Now
	if now.IsZero() {
		now = time.Now()
	}
	return types.Metadata{
		Version:     rc.Version,
		RequestID:   rc.RequestID,
		Stage:       stage,
		GeneratedAt: now.UTC(),
	}
}

// InjectMetadata fills absent metadata fields on a document. It reports
// whether anything was added; present values are never overwritten.
func InjectMetadata(doc map[string]any, meta types.Metadata) bool {
	if doc == nil {
		return false
	}
	md, ok := doc["metadata"].(map[string]any)
	if !ok {
		md = make(map[string]any)
		doc["metadata"] = md
	}

	changed := !ok
	set := func(key, value string) {
		if current, exists := md[key]; exists && current != nil && current != "" {
			return
		}
		if value == "" {
			if _, exists := md[key]; exists {
				return
			}
		}
		md[key] = value
		changed = true
	}
	set("version", meta.Version)
	set("request_id", meta.RequestID)
	set("stage", string(meta.Stage))
	if !meta.GeneratedAt.IsZero() {
		if raw, ok := md["generated_at"].(string); ok {
			if _, err := time.Parse(time.RFC3339, raw); err != nil {
				delete(md, "generated_at")
			}
		}
		set("generated_at", meta.GeneratedAt.UTC().Format(time.RFC3339Nano))
	}
	return changed
}
