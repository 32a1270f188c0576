package stages

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/prompts"
	"github.com/jonathan/showcase-forge/internal/types"
)

func TestDefault_ContainsEveryStage(t *testing.T) {
	registry, err := Default()
	require.NoError(t, err)

	for _, id := range types.AllStages() {
		c, err := registry.Get(id)
		require.NoError(t, err, "stage %s", id)
		assert.Equal(t, id, c.Stage)
		assert.NotEmpty(t, c.Version)
		assert.Greater(t, c.Timeout, time.Duration(0))
	}
}

func TestDefault_ConceptIsTheOnlyCriticalStage(t *testing.T) {
	registry := MustDefault()

	var critical []types.StageID
	for _, c := range registry.Stages() {
		if c.Critical {
			critical = append(critical, c.Stage)
		}
	}
	assert.Equal(t, []types.StageID{types.StageConcept}, critical)
}

func TestGet_UnknownStage(t *testing.T) {
	registry := MustDefault()

	_, err := registry.Get(types.StageID("nope"))
	require.Error(t, err)

	var cfgErr *llm.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, llm.ErrUnknownStage)
}

func TestNewRegistry_RejectsUnknownStageDocument(t *testing.T) {
	_, err := NewRegistry([]prompts.ContractDoc{{Stage: "mystery", Version: "1", TimeoutSeconds: 1, Template: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnknownStage)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	doc := prompts.ContractDoc{Stage: "concept", Version: "1", TimeoutSeconds: 1, Template: "{{.Idea}}"}
	_, err := NewRegistry([]prompts.ContractDoc{doc, doc})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestStages_ReturnsDeclarationOrder(t *testing.T) {
	registry := MustDefault()

	var order []types.StageID
	for _, c := range registry.Stages() {
		order = append(order, c.Stage)
	}
	assert.Equal(t, types.AllStages(), order)
}

func TestPrompt_ConceptIncludesPreambleIdeaAndContext(t *testing.T) {
	registry := MustDefault()

	prompt, err := registry.Prompt(types.StageConcept, &types.ConceptInput{
		Idea:    "a journaling app for night owls",
		Context: map[string]any{"tone": "calm", "platform": "mobile", "empty": "", "skip": nil},
	})
	require.NoError(t, err)

	c, _ := registry.Get(types.StageConcept)
	assert.True(t, len(prompt) > len(c.SystemPreamble))
	assert.Contains(t, prompt, c.SystemPreamble)
	assert.Contains(t, prompt, "a journaling app for night owls")
	assert.Contains(t, prompt, "- platform: mobile\n- tone: calm")
	assert.NotContains(t, prompt, "- empty:")
	assert.NotContains(t, prompt, "{{.")
}

func TestPrompt_ConceptWithoutContext(t *testing.T) {
	registry := MustDefault()

	prompt, err := registry.Prompt(types.StageConcept, &types.ConceptInput{Idea: "x"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "(none)")
}

func TestPrompt_ResearchOmitsRunMetadata(t *testing.T) {
	registry := MustDefault()

	concept := &types.ProductConcept{
		Metadata: types.Metadata{RequestID: "req-123", Version: "v"},
		Name:     "Night Pages",
	}
	prompt, err := registry.Prompt(types.StageResearch, &types.ResearchInput{Idea: "journal", Concept: concept})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Night Pages")
	assert.NotContains(t, prompt, "req-123")
}

func TestPrompt_ScreensWithoutResearch(t *testing.T) {
	registry := MustDefault()

	prompt, err := registry.Prompt(types.StageScreens, &types.ScreensInput{Concept: &types.ProductConcept{Name: "Night Pages"}})
	require.NoError(t, err)
	assert.Contains(t, prompt, "null")
}

func TestPrompt_WrongInputType(t *testing.T) {
	registry := MustDefault()

	_, err := registry.Prompt(types.StageMockup, &types.ConceptInput{Idea: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot build a prompt")
}

func TestPrompt_ShowcaseFromMockup(t *testing.T) {
	registry := MustDefault()

	screens := &types.ScreenSpecs{Screens: []types.Screen{{ID: "home", Name: "Home", Layout: "list", Purpose: "Browse entries"}}}
	concept := &types.ProductConcept{ColorPalette: []types.ColorSwatch{{Role: "primary", Hex: "#112233"}}}
	prompt, err := registry.Prompt(types.StageShowcase, &types.ShowcaseInput{
		Mockup: &types.MockupScene{
			Title:           "Night Pages",
			DeviceFrame:     "phone",
			FeaturedScreens: []string{"home", "missing"},
			RenderPrompt:    "Two phones on a dark desk",
		},
		Screens: screens,
		Concept: concept,
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Two phones on a dark desk")
	assert.Contains(t, prompt, "- Home (list layout): Browse entries")
	assert.Contains(t, prompt, "- missing")
	assert.Contains(t, prompt, "primary #112233")
}

func TestPrompt_ShowcaseFromScreenPrompt(t *testing.T) {
	registry := MustDefault()

	prompt, err := registry.Prompt(types.StageShowcase, &types.ScreenImageInput{
		Prompt: types.ScreenPrompt{ScreenID: "home", Prompt: "A dark list of journal entries", AspectRatio: "9:16"},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "A dark list of journal entries")
	assert.Contains(t, prompt, "Aspect ratio: 9:16")
}
