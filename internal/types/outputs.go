package types

import "time"

// Metadata is embedded in every structured stage output.
type Metadata struct {
	Version     string    `json:"version"`
	RequestID   string    `json:"request_id"`
	Stage       StageID   `json:"stage"`
	GeneratedAt time.Time `json:"generated_at"`
}

// StageOutput is the tagged variant of all structured stage outputs.
type StageOutput interface {
	Stage() StageID
	Meta() Metadata
}

// NewOutput returns an empty output value for a structured stage, or nil.
func NewOutput(stage StageID) StageOutput {
	switch stage {
	case StageConcept:
		return &ProductConcept{}
	case StageResearch:
		return &ResearchBrief{}
	case StageScreens:
		return &ScreenSpecs{}
	case StageImagePrompts:
		return &ImagePrompts{}
	case StageMockup:
		return &MockupScene{}
	default:
		return nil
	}
}

// ProductConcept is the critical first artifact of a run.
type ProductConcept struct {
	Metadata         Metadata      `json:"metadata"`
	Name             string        `json:"name"`
	Tagline          string        `json:"tagline"`
	Summary          string        `json:"summary"`
	Problem          string        `json:"problem"`
	TargetAudience   string        `json:"target_audience"`
	ValueProposition string        `json:"value_proposition"`
	Platform         string        `json:"platform"`
	Tone             string        `json:"tone"`
	KeyFeatures      []Feature     `json:"key_features"`
	ColorPalette     []ColorSwatch `json:"color_palette"`
}

// Feature is a single headline capability of the product.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ColorSwatch pairs a palette role with a hex color.
type ColorSwatch struct {
	Role string `json:"role"`
	Hex  string `json:"hex"`
}

// Stage implements StageOutput
func (c *ProductConcept) Stage() StageID { return StageConcept }

// Meta implements StageOutput
func (c *ProductConcept) Meta() Metadata { return c.Metadata }

// ResearchBrief holds market notes gathered for the concept.
type ResearchBrief struct {
	Metadata      Metadata     `json:"metadata"`
	MarketSummary string       `json:"market_summary"`
	Competitors   []Competitor `json:"competitors"`
	Personas      []Persona    `json:"personas"`
	Risks         []string     `json:"risks"`
	Opportunities []string     `json:"opportunities"`
}

// Competitor is an existing product in the same space.
type Competitor struct {
	Name           string `json:"name"`
	Differentiator string `json:"differentiator"`
}

// Persona is a target user archetype.
type Persona struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Needs       []string `json:"needs"`
}

// Stage implements StageOutput
func (r *ResearchBrief) Stage() StageID { return StageResearch }

// Meta implements StageOutput
func (r *ResearchBrief) Meta() Metadata { return r.Metadata }

// ScreenSpecs describes the UI screens of the product.
type ScreenSpecs struct {
	Metadata   Metadata `json:"metadata"`
	Navigation string   `json:"navigation"`
	Screens    []Screen `json:"screens"`
}

// Screen is one UI screen description.
type Screen struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Purpose    string      `json:"purpose"`
	Layout     string      `json:"layout"`
	Components []Component `json:"components"`
}

// Component is a UI element placed on a screen.
type Component struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Stage implements StageOutput
func (s *ScreenSpecs) Stage() StageID { return StageScreens }

// Meta implements StageOutput
func (s *ScreenSpecs) Meta() Metadata { return s.Metadata }

// ScreenByID returns the screen with the given id, or nil.
func (s *ScreenSpecs) ScreenByID(id string) *Screen {
	for i := range s.Screens {
		if s.Screens[i].ID == id {
			return &s.Screens[i]
		}
	}
	return nil
}

// ImagePrompts holds one render prompt per screen.
type ImagePrompts struct {
	Metadata Metadata       `json:"metadata"`
	Prompts  []ScreenPrompt `json:"prompts"`
}

// ScreenPrompt is an image-generation prompt for a single screen.
type ScreenPrompt struct {
	ScreenID    string `json:"screen_id"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

// Stage implements StageOutput
func (p *ImagePrompts) Stage() StageID { return StageImagePrompts }

// Meta implements StageOutput
func (p *ImagePrompts) Meta() Metadata { return p.Metadata }

// MockupScene is the composed layout the showcase image is rendered from.
type MockupScene struct {
	Metadata        Metadata `json:"metadata"`
	Title           string   `json:"title"`
	Caption         string   `json:"caption"`
	DeviceFrame     string   `json:"device_frame"`
	Arrangement     string   `json:"arrangement"`
	Background      string   `json:"background"`
	FeaturedScreens []string `json:"featured_screens"`
	RenderPrompt    string   `json:"render_prompt"`
}

// Stage implements StageOutput
func (m *MockupScene) Stage() StageID { return StageMockup }

// Meta implements StageOutput
func (m *MockupScene) Meta() Metadata { return m.Metadata }
