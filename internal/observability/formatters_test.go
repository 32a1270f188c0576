package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/showcase-forge/internal/types"
)

func TestPrintConcept(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintConcept(&types.ProductConcept{
		Name:     "Night Pages",
		Tagline:  "A journal that keeps your hours",
		Platform: "mobile",
		Tone:     "calm",
		KeyFeatures: []types.Feature{
			{Name: "Moonlight mode"}, {Name: "Midnight prompts"}, {Name: "Quiet streaks"},
			{Name: "Four"}, {Name: "Five"}, {Name: "Six"},
		},
		ColorPalette: []types.ColorSwatch{{Role: "primary", Hex: "#1E1B4B"}},
	})
	output := buf.String()

	assert.Contains(t, output, "PRODUCT CONCEPT")
	assert.Contains(t, output, "Night Pages")
	assert.Contains(t, output, "Moonlight mode")
	assert.Contains(t, output, "... and 1 more")
	assert.Contains(t, output, "#1E1B4B")
}

func TestPrint_NilInputsPrintNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintConcept(nil)
	p.PrintResearch(nil)
	p.PrintScreens(nil)
	p.PrintScreens(&types.ScreenSpecs{})
	p.PrintMockup(nil)
	p.PrintShowcase(nil)

	assert.Empty(t, buf.String())
}

func TestPrintResearch(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResearch(&types.ResearchBrief{
		MarketSummary: "Underserved late-night users",
		Competitors:   []types.Competitor{{Name: "Day One"}, {Name: "Stoic"}, {Name: "Reflectly"}, {Name: "Journey"}},
		Personas:      []types.Persona{{Name: "Nadia"}},
	})
	output := buf.String()

	assert.Contains(t, output, "RESEARCH BRIEF")
	assert.Contains(t, output, "Day One")
	assert.Contains(t, output, "... and 1 more")
	assert.Contains(t, output, "Nadia")
}

func TestPrintScreensAndMockup(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScreens(&types.ScreenSpecs{
		Navigation: "tabs",
		Screens:    []types.Screen{{ID: "home", Name: "Tonight", Layout: "detail", Purpose: "Prompt"}},
	})
	p.PrintMockup(&types.MockupScene{Title: "Night Pages", DeviceFrame: "phone", Arrangement: "single", FeaturedScreens: []string{"home"}})
	output := buf.String()

	assert.Contains(t, output, "1 screens, tabs navigation")
	assert.Contains(t, output, "Tonight [detail]")
	assert.Contains(t, output, "phone (single)")
}

func TestPrintShowcase(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintShowcase(&types.ShowcaseResult{Success: true, MIMEType: "image/png", Data: []byte("abc"), URL: "file:///tmp/x.png", CostUSD: 0.04})
	assert.Contains(t, buf.String(), "rendered image/png (3 bytes)")
	assert.Contains(t, buf.String(), "file:///tmp/x.png")

	buf.Reset()
	p.PrintShowcase(&types.ShowcaseResult{Error: "content blocked: SAFETY"})
	assert.Contains(t, buf.String(), "content blocked: SAFETY")
}

func TestPrintErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintErrors(nil)
	assert.Contains(t, buf.String(), "ALL STAGES SUCCEEDED")

	buf.Reset()
	p.PrintErrors([]types.StageError{{Stage: types.StageResearch, Message: strings.Repeat("x", 80)}})
	output := buf.String()
	assert.Contains(t, output, "STAGE ERRORS")
	assert.Contains(t, output, "research")
	assert.Contains(t, output, "...")
}
