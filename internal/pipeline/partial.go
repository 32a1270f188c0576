package pipeline

import (
	"github.com/jonathan/showcase-forge/internal/types"
)

// PartialResult is the flattened view of a run a caller needs to display
// progress: the structured artifacts produced so far and the images that
// rendered successfully.
type PartialResult struct {
	RequestID string                `json:"request_id"`
	Concept   *types.ProductConcept `json:"concept,omitempty"`
	Research  *types.ResearchBrief  `json:"research,omitempty"`
	Screens   *types.ScreenSpecs    `json:"screens,omitempty"`
	Images    []types.ScreenImage   `json:"images,omitempty"`
	Mockup    *types.MockupScene    `json:"mockup,omitempty"`
	Showcase  *types.ShowcaseResult `json:"showcase,omitempty"`
	Errors    []types.StageError    `json:"errors,omitempty"`
}

// ExtractPartialResult projects a pipeline result onto a PartialResult.
// It has no side effects; a nil result yields an empty projection.
func ExtractPartialResult(result *Result) PartialResult {
	if result == nil || result.State == nil {
		if result != nil {
			return PartialResult{RequestID: result.RequestID}
		}
		return PartialResult{}
	}
	return snapshotOf(result.State)
}

func snapshotOf(state *types.RunState) PartialResult {
	out := PartialResult{
		RequestID: state.RequestID,
		Concept:   state.Concept(),
		Research:  state.Research(),
		Screens:   state.Screens(),
		Mockup:    state.Mockup(),
	}
	for _, img := range state.ScreenImages {
		if img.Image.Success {
			out.Images = append(out.Images, img)
		}
	}
	if state.Showcase != nil && state.Showcase.Success {
		showcase := *state.Showcase
		out.Showcase = &showcase
	}
	if len(state.Errors) > 0 {
		out.Errors = append([]types.StageError(nil), state.Errors...)
	}
	return out
}
