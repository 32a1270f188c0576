package llmtest

import (
	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/types"
)

// Canned stage replies that satisfy the embedded schemas once run metadata
// is injected. They deliberately carry no metadata block.
const (
	ConceptJSON = `{
  "name": "Night Pages",
  "tagline": "A journal that keeps your hours",
  "summary": "A calm journaling app tuned for late-night writing sessions.",
  "problem": "Night owls journal when most apps nag them to sleep.",
  "target_audience": "People who write after midnight",
  "value_proposition": "Dark, distraction-free journaling with gentle prompts.",
  "platform": "mobile",
  "tone": "calm",
  "key_features": [
    {"name": "Moonlight mode", "description": "Low-light palette that adapts to the hour."},
    {"name": "Midnight prompts", "description": "Short prompts for late sessions."},
    {"name": "Quiet streaks", "description": "Streaks that never shame you."}
  ],
  "color_palette": [
    {"role": "primary", "hex": "#1E1B4B"},
    {"role": "accent", "hex": "#FBBF24"},
    {"role": "background", "hex": "#0B0A1A"}
  ]
}`

	ResearchJSON = `{
  "market_summary": "Journaling apps target morning routines; late-night users are underserved.",
  "competitors": [
    {"name": "Day One", "differentiator": "Rich media journaling"},
    {"name": "Stoic", "differentiator": "Guided morning and evening routines"}
  ],
  "personas": [
    {"name": "Nadia", "description": "Nurse on night shifts", "needs": ["privacy", "short sessions"]}
  ],
  "risks": ["Crowded category"],
  "opportunities": ["Sleep-friendly design"]
}`

	ScreensJSON = `{
  "navigation": "tabs",
  "screens": [
    {"id": "onboarding", "name": "Welcome", "purpose": "Set writing hours", "layout": "onboarding", "components": [{"kind": "button", "label": "Start"}]},
    {"id": "home", "name": "Tonight", "purpose": "Today's prompt and entry", "layout": "detail", "components": [{"kind": "card", "label": "Prompt"}]},
    {"id": "entries", "name": "Entries", "purpose": "Browse past entries", "layout": "list", "components": [{"kind": "list", "label": "Entries"}]},
    {"id": "settings", "name": "Settings", "purpose": "Theme and reminders", "layout": "settings", "components": []}
  ]
}`

	ImagePromptsJSON = `{
  "prompts": [
    {"screen_id": "home", "prompt": "Dark journaling screen with a glowing prompt card", "aspect_ratio": "9:16"},
    {"screen_id": "entries", "prompt": "Dark list of journal entries with moon icons", "aspect_ratio": "9:16"}
  ]
}`

	MockupJSON = `{
  "title": "Night Pages",
  "caption": "Write when the world is quiet",
  "device_frame": "phone",
  "arrangement": "side_by_side",
  "background": "deep indigo gradient",
  "featured_screens": ["home", "entries"],
  "render_prompt": "Two phones on a dark desk showing a calm journaling app"
}`
)

// PNGBytes is a minimal PNG signature, enough for content-type sniffing.
var PNGBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// FixtureJSON returns the canned reply for a structured stage.
func FixtureJSON(stage types.StageID) string {
	switch stage {
	case types.StageConcept:
		return ConceptJSON
	case types.StageResearch:
		return ResearchJSON
	case types.StageScreens:
		return ScreensJSON
	case types.StageImagePrompts:
		return ImagePromptsJSON
	case types.StageMockup:
		return MockupJSON
	default:
		return ""
	}
}

// ImageReply is a successful image generation reply.
func ImageReply(tokens int) Reply {
	return Reply{
		Image:            &llm.InlineData{MIMEType: "image/png", Data: PNGBytes},
		PromptTokens:     tokens,
		CompletionTokens: tokens,
		Model:            "stub-image-model",
	}
}

// HappyPath scripts every stage with a valid reply. Each text reply reports
// the given token counts so tests can predict cost.
func HappyPath(promptTokens, completionTokens int) *StubBackend {
	stub := NewStubBackend()
	for _, stage := range types.StructuredStages() {
		stub.On(stage, Reply{
			Text:             FixtureJSON(stage),
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
		})
	}
	stub.On(types.StageShowcase, ImageReply(promptTokens))
	return stub
}
