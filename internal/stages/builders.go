package stages

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/showcase-forge/internal/prompts"
	"github.com/jonathan/showcase-forge/internal/types"
)

var builders = map[types.StageID]PromptBuilder{
	types.StageConcept:      buildConceptPrompt,
	types.StageResearch:     buildResearchPrompt,
	types.StageScreens:      buildScreensPrompt,
	types.StageImagePrompts: buildImagePromptsPrompt,
	types.StageMockup:       buildMockupPrompt,
	types.StageShowcase:     buildShowcasePrompt,
}

func buildConceptPrompt(template string, input any) (string, error) {
	in, ok := input.(*types.ConceptInput)
	if !ok || in == nil {
		return "", inputTypeError(types.StageConcept, input)
	}
	return prompts.Format(template, map[string]string{
		"Idea":    strings.TrimSpace(in.Idea),
		"Context": formatContext(in.Context),
	}), nil
}

func buildResearchPrompt(template string, input any) (string, error) {
	in, ok := input.(*types.ResearchInput)
	if !ok || in == nil || in.Concept == nil {
		return "", inputTypeError(types.StageResearch, input)
	}
	return prompts.Format(template, map[string]string{
		"Idea":    strings.TrimSpace(in.Idea),
		"Concept": promptJSON(in.Concept),
	}), nil
}

func buildScreensPrompt(template string, input any) (string, error) {
	in, ok := input.(*types.ScreensInput)
	if !ok || in == nil || in.Concept == nil {
		return "", inputTypeError(types.StageScreens, input)
	}
	return prompts.Format(template, map[string]string{
		"Concept":  promptJSON(in.Concept),
		"Research": promptJSON(in.Research),
	}), nil
}

func buildImagePromptsPrompt(template string, input any) (string, error) {
	in, ok := input.(*types.ImagePromptsInput)
	if !ok || in == nil || in.Concept == nil || in.Screens == nil {
		return "", inputTypeError(types.StageImagePrompts, input)
	}
	return prompts.Format(template, map[string]string{
		"Concept": promptJSON(in.Concept),
		"Screens": promptJSON(in.Screens),
	}), nil
}

func buildMockupPrompt(template string, input any) (string, error) {
	in, ok := input.(*types.MockupInput)
	if !ok || in == nil || in.Concept == nil || in.Screens == nil {
		return "", inputTypeError(types.StageMockup, input)
	}
	return prompts.Format(template, map[string]string{
		"Concept": promptJSON(in.Concept),
		"Screens": promptJSON(in.Screens),
	}), nil
}

// buildShowcasePrompt renders either the composed mockup or a single screen.
func buildShowcasePrompt(template string, input any) (string, error) {
	switch in := input.(type) {
	case *types.ShowcaseInput:
		if in == nil || in.Mockup == nil {
			return "", inputTypeError(types.StageShowcase, input)
		}
		m := in.Mockup
		return prompts.Format(template, map[string]string{
			"RenderPrompt": strings.TrimSpace(m.RenderPrompt),
			"Title":        m.Title,
			"Caption":      m.Caption,
			"DeviceFrame":  m.DeviceFrame,
			"Arrangement":  m.Arrangement,
			"Background":   m.Background,
			"Screens":      describeFeatured(m.FeaturedScreens, in.Screens),
			"Palette":      describePalette(in.Concept),
		}), nil
	case *types.ScreenImageInput:
		if in == nil || strings.TrimSpace(in.Prompt.Prompt) == "" {
			return "", inputTypeError(types.StageShowcase, input)
		}
		var sb strings.Builder
		sb.WriteString(strings.TrimSpace(in.Prompt.Prompt))
		if in.Prompt.AspectRatio != "" {
			sb.WriteString(fmt.Sprintf("\nAspect ratio: %s", in.Prompt.AspectRatio))
		}
		if palette := describePalette(in.Concept); palette != "" {
			sb.WriteString(fmt.Sprintf("\nColor palette: %s", palette))
		}
		return sb.String(), nil
	default:
		return "", inputTypeError(types.StageShowcase, input)
	}
}

func inputTypeError(stage types.StageID, input any) error {
	return fmt.Errorf("stage %s cannot build a prompt from %T", stage, input)
}

// formatContext renders the hint bag as sorted "key: value" lines
func formatContext(ctx map[string]any) string {
	if len(ctx) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := ctx[k]
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s: %s\n", k, val))
		default:
			data, err := json.Marshal(val)
			if err != nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s: %s\n", k, data))
		}
	}
	if sb.Len() == 0 {
		return "(none)"
	}
	return strings.TrimRight(sb.String(), "\n")
}

// promptJSON renders a stage output without its run metadata
func promptJSON(v any) string {
	if v == nil {
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "null"
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err == nil {
		delete(generic, "metadata")
		if pretty, err := json.MarshalIndent(generic, "", "  "); err == nil {
			return string(pretty)
		}
	}
	return string(data)
}

func describeFeatured(ids []string, screens *types.ScreenSpecs) string {
	var lines []string
	for _, id := range ids {
		line := "- " + id
		if screens != nil {
			if s := screens.ScreenByID(id); s != nil {
				line = fmt.Sprintf("- %s (%s layout): %s", s.Name, s.Layout, s.Purpose)
			}
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "- (none)"
	}
	return strings.Join(lines, "\n")
}

func describePalette(concept *types.ProductConcept) string {
	if concept == nil || len(concept.ColorPalette) == 0 {
		return ""
	}
	parts := make([]string, 0, len(concept.ColorPalette))
	for _, swatch := range concept.ColorPalette {
		parts = append(parts, fmt.Sprintf("%s %s", swatch.Role, swatch.Hex))
	}
	return strings.Join(parts, ", ")
}
