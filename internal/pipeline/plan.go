package pipeline

import (
	"github.com/jonathan/showcase-forge/internal/types"
)

// stepDefinition places a stage in the run and names what it depends on
type stepDefinition struct {
	Stage types.StageID
	// Requires must have completed for the step to run
	Requires []types.StageID
	// Uses are optional inputs, passed along when present
	Uses []types.StageID
	// Start is the progress message emitted before the step runs
	Start string
}

// stepOrder is the fixed execution order of a run
var stepOrder = []stepDefinition{
	{
		Stage: types.StageConcept,
		Start: "Shaping the product concept",
	},
	{
		Stage:    types.StageResearch,
		Requires: []types.StageID{types.StageConcept},
		Start:    "Researching the market",
	},
	{
		Stage:    types.StageScreens,
		Requires: []types.StageID{types.StageConcept},
		Uses:     []types.StageID{types.StageResearch},
		Start:    "Designing screens",
	},
	{
		Stage:    types.StageImagePrompts,
		Requires: []types.StageID{types.StageConcept, types.StageScreens},
		Start:    "Rendering screen images",
	},
	{
		Stage:    types.StageMockup,
		Requires: []types.StageID{types.StageConcept, types.StageScreens},
		Start:    "Composing the mockup",
	},
	{
		Stage:    types.StageShowcase,
		Requires: []types.StageID{types.StageMockup},
		Uses:     []types.StageID{types.StageConcept, types.StageScreens},
		Start:    "Rendering the showcase",
	},
}

// planFor returns the steps a run will execute, in order.
func planFor(opts Options) []stepDefinition {
	plan := make([]stepDefinition, 0, len(stepOrder))
	for _, step := range stepOrder {
		if step.Stage == types.StageImagePrompts && !opts.RenderScreenImages {
			continue
		}
		plan = append(plan, step)
	}
	return plan
}

// missingDependency returns the first required stage without a usable output.
// Screen specs without any screen count as missing.
func (d stepDefinition) missingDependency(state *types.RunState) (types.StageID, bool) {
	for _, dep := range d.Requires {
		if !state.Completed(dep) {
			return dep, true
		}
		if dep == types.StageScreens {
			if specs := state.Screens(); specs == nil || len(specs.Screens) == 0 {
				return dep, true
			}
		}
	}
	return "", false
}
