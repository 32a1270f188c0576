// Package observability provides logging, metrics and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/showcase-forge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintConcept outputs the product concept.
func (p *Printer) PrintConcept(concept *types.ProductConcept) {
	if concept == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:      %s\n", concept.Name))
	sb.WriteString(fmt.Sprintf("Tagline:   %s\n", truncate(concept.Tagline, 44)))
	sb.WriteString(fmt.Sprintf("Platform:  %s\n", concept.Platform))
	if concept.Tone != "" {
		sb.WriteString(fmt.Sprintf("Tone:      %s\n", concept.Tone))
	}
	sb.WriteString("\n")

	if len(concept.KeyFeatures) > 0 {
		sb.WriteString("Key Features:\n")
		count := min(len(concept.KeyFeatures), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", truncate(concept.KeyFeatures[i].Name, 50)))
		}
		if len(concept.KeyFeatures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(concept.KeyFeatures)-maxItemsToShow))
		}
	}

	if len(concept.ColorPalette) > 0 {
		swatches := make([]string, 0, len(concept.ColorPalette))
		for _, s := range concept.ColorPalette {
			swatches = append(swatches, s.Hex)
		}
		sb.WriteString(fmt.Sprintf("Palette:   %s\n", strings.Join(swatches, " ")))
	}

	p.printBox("PRODUCT CONCEPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResearch outputs the research brief.
func (p *Printer) PrintResearch(brief *types.ResearchBrief) {
	if brief == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(truncate(brief.MarketSummary, 56))
	sb.WriteString("\n\n")

	if len(brief.Competitors) > 0 {
		sb.WriteString("Competitors:\n")
		count := min(len(brief.Competitors), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", brief.Competitors[i].Name))
		}
		if len(brief.Competitors) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(brief.Competitors)-3))
		}
	}

	if len(brief.Personas) > 0 {
		sb.WriteString("Personas:\n")
		for _, persona := range brief.Personas {
			sb.WriteString(fmt.Sprintf("  • %s\n", persona.Name))
		}
	}

	p.printBox("RESEARCH BRIEF", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScreens outputs the screen specification.
func (p *Printer) PrintScreens(specs *types.ScreenSpecs) {
	if specs == nil || len(specs.Screens) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d screens, %s navigation\n\n", len(specs.Screens), specs.Navigation))

	for i, screen := range specs.Screens {
		sb.WriteString(fmt.Sprintf("#%d  %s [%s]\n", i+1, screen.Name, screen.Layout))
		if screen.Purpose != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", truncate(screen.Purpose, 50)))
		}
	}

	p.printBox("SCREENS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMockup outputs the composed mockup scene.
func (p *Printer) PrintMockup(scene *types.MockupScene) {
	if scene == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:     %s\n", scene.Title))
	if scene.Caption != "" {
		sb.WriteString(fmt.Sprintf("Caption:   %s\n", truncate(scene.Caption, 44)))
	}
	sb.WriteString(fmt.Sprintf("Frame:     %s (%s)\n", scene.DeviceFrame, scene.Arrangement))
	sb.WriteString(fmt.Sprintf("Screens:   %s", strings.Join(scene.FeaturedScreens, ", ")))

	p.printBox("MOCKUP SCENE", sb.String())
}

// PrintShowcase outputs the showcase rendering outcome.
func (p *Printer) PrintShowcase(showcase *types.ShowcaseResult) {
	if showcase == nil {
		return
	}

	var sb strings.Builder
	if showcase.Success {
		sb.WriteString(fmt.Sprintf("✓ rendered %s (%d bytes)\n", showcase.MIMEType, len(showcase.Data)))
		if showcase.URL != "" {
			sb.WriteString(fmt.Sprintf("URL:  %s\n", showcase.URL))
		} else if showcase.StorageKey != "" {
			sb.WriteString(fmt.Sprintf("Key:  %s\n", showcase.StorageKey))
		}
	} else {
		sb.WriteString(fmt.Sprintf("✗ %s\n", truncate(showcase.Error, 50)))
	}
	sb.WriteString(fmt.Sprintf("Cost: $%.4f", showcase.CostUSD))

	p.printBox("SHOWCASE", sb.String())
}

// PrintErrors outputs the stage errors recorded during a run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintErrors(errs []types.StageError) {
	if len(errs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL STAGES SUCCEEDED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d stage errors:\n\n", len(errs)))

	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", e.Stage))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(e.Message, 45)))
		if i < len(errs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("STAGE ERRORS", sb.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
