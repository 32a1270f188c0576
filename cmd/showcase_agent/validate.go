package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/showcase-forge/internal/schemas"
	"github.com/jonathan/showcase-forge/internal/types"
)

var (
	validateStage  string
	validateFile   string
	validateRepair bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a stage output file against its schema",
	Long: `Validates a JSON document against the schema of a stage.

With --repair, missing required fields are filled with placeholders and the repaired document is printed.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateStage, "stage", "s", "", "Stage identifier (concept, research, screens, image_prompts, mockup)")
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Path to the JSON file to validate")
	validateCmd.Flags().BoolVar(&validateRepair, "repair", false, "Apply one repair pass before validating")
	_ = validateCmd.MarkFlagRequired("stage")
	_ = validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	stage, err := types.ParseStageID(validateStage)
	if err != nil {
		return err
	}

	validator, err := schemas.Default()
	if err != nil {
		return fmt.Errorf("failed to load stage schemas: %w", err)
	}

	outcome, err := validator.ValidateJSONFile(stage, validateFile, validateRepair)
	if err != nil {
		return err
	}

	if !outcome.Valid {
		_, _ = fmt.Fprintf(out, "✗ Validation failed for %s:\n", stage)
		for _, msg := range outcome.Messages() {
			_, _ = fmt.Fprintf(out, "  - %s\n", msg)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(outcome.Errors))
	}

	if outcome.Repaired {
		_, _ = fmt.Fprintf(out, "✓ Validation passed for %s after repair\n", stage)
		data, err := outcome.ValidJSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}

	_, _ = fmt.Fprintf(out, "✓ Validation passed for %s\n", stage)
	return nil
}
