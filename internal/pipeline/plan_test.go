package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/showcase-forge/internal/types"
)

func stagesOf(plan []stepDefinition) []types.StageID {
	out := make([]types.StageID, 0, len(plan))
	for _, s := range plan {
		out = append(out, s.Stage)
	}
	return out
}

func TestPlanFor(t *testing.T) {
	assert.Equal(t, []types.StageID{
		types.StageConcept, types.StageResearch, types.StageScreens, types.StageMockup, types.StageShowcase,
	}, stagesOf(planFor(Options{})))

	assert.Equal(t, []types.StageID{
		types.StageConcept, types.StageResearch, types.StageScreens, types.StageImagePrompts, types.StageMockup, types.StageShowcase,
	}, stagesOf(planFor(Options{RenderScreenImages: true})))
}

func TestMissingDependency(t *testing.T) {
	mockup := stepOrder[4]
	require.Equal(t, types.StageMockup, mockup.Stage)

	state := types.NewRunState("r", time.Now())
	dep, missing := mockup.missingDependency(state)
	assert.True(t, missing)
	assert.Equal(t, types.StageConcept, dep)

	require.NoError(t, state.Record(&types.ProductConcept{Name: "x"}))
	require.NoError(t, state.Record(&types.ScreenSpecs{}))
	dep, missing = mockup.missingDependency(state)
	assert.True(t, missing, "screen specs without screens count as missing")
	assert.Equal(t, types.StageScreens, dep)

	state.StageOutputs[types.StageScreens] = &types.ScreenSpecs{Screens: []types.Screen{{ID: "home"}}}
	_, missing = mockup.missingDependency(state)
	assert.False(t, missing)
}
