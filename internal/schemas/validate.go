// Package schemas provides JSON Schema validation, deterministic repair and
// response parsing for structured stage outputs.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/types"
)

//go:embed definitions/*.json
var definitionFiles embed.FS

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Stage  types.StageID
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// String renders "field: message"
func (fe FieldError) String() string {
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Stage != "" {
		sb.WriteString(fmt.Sprintf("%s validation failed:\n", ve.Stage))
	} else {
		sb.WriteString("validation failed:\n")
	}
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// stageSchema is a compiled schema plus its raw form, which drives repairs
type stageSchema struct {
	compiled *gojsonschema.Schema
	raw      map[string]any
	source   []byte
}

func loadStageSchema(stage types.StageID) (*stageSchema, error) {
	path := fmt.Sprintf("definitions/%s.json", stage)
	data, err := definitionFiles.ReadFile(path)
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "schema not embedded", Cause: err}
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "schema failed to compile", Cause: err}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "schema is not a JSON object", Cause: err}
	}

	return &stageSchema{compiled: compiled, raw: raw, source: data}, nil
}

// check validates a document and returns field errors (empty when valid)
func (s *stageSchema) check(document any) ([]FieldError, error) {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		errs = append(errs, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return errs, nil
}

// Validator validates stage outputs against their embedded schemas.
// It is safe for concurrent use.
type Validator struct {
	schemas map[types.StageID]*stageSchema
}

// NewValidator compiles the schema of every structured stage.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[types.StageID]*stageSchema)}
	for _, stage := range types.StructuredStages() {
		s, err := loadStageSchema(stage)
		if err != nil {
			return nil, err
		}
		v.schemas[stage] = s
	}
	return v, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns the process-wide validator.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}

// Schema returns the raw JSON schema for a stage.
func (v *Validator) Schema(stage types.StageID) ([]byte, error) {
	s, err := v.schema(stage)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), s.source...), nil
}

func (v *Validator) schema(stage types.StageID) (*stageSchema, error) {
	s, ok := v.schemas[stage]
	if !ok {
		return nil, &llm.ConfigurationError{Message: fmt.Sprintf("no schema for stage %q", stage), Cause: llm.ErrUnknownStage}
	}
	return s, nil
}
