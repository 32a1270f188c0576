package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// IdeaInput is the pipeline invocation payload. Context is an open bag of
// hints (platform, industry, tone, audience) that stages may use.
type IdeaInput struct {
	Idea    string         `json:"idea" validate:"required,notblank"`
	Context map[string]any `json:"context,omitempty"`
}

var ideaValidator = newIdeaValidator()

func newIdeaValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate validates the IdeaInput using the validator.
func (i *IdeaInput) Validate() error {
	return ideaValidator.Struct(i)
}

// ContextString returns a string hint from the context bag, or "".
func (i *IdeaInput) ContextString(key string) string {
	if i.Context == nil {
		return ""
	}
	if v, ok := i.Context[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// ConceptInput feeds the concept stage.
type ConceptInput struct {
	Idea    string         `json:"idea"`
	Context map[string]any `json:"context,omitempty"`
}

// ResearchInput feeds the research stage.
type ResearchInput struct {
	Idea    string          `json:"idea"`
	Concept *ProductConcept `json:"concept"`
}

// ScreensInput feeds the screen specification stage.
type ScreensInput struct {
	Concept  *ProductConcept `json:"concept"`
	Research *ResearchBrief  `json:"research,omitempty"`
}

// ImagePromptsInput feeds the image prompt stage.
type ImagePromptsInput struct {
	Concept *ProductConcept `json:"concept"`
	Screens *ScreenSpecs    `json:"screens"`
}

// MockupInput feeds the mockup composition stage.
type MockupInput struct {
	Concept *ProductConcept `json:"concept"`
	Screens *ScreenSpecs    `json:"screens"`
}

// ShowcaseInput feeds the showcase render.
type ShowcaseInput struct {
	Mockup  *MockupScene    `json:"mockup"`
	Screens *ScreenSpecs    `json:"screens,omitempty"`
	Concept *ProductConcept `json:"concept,omitempty"`
}

// ScreenImageInput feeds the optional per-screen render.
type ScreenImageInput struct {
	Prompt  ScreenPrompt    `json:"prompt"`
	Concept *ProductConcept `json:"concept,omitempty"`
}
