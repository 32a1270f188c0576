package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/showcase-forge/internal/stages"
	"github.com/jonathan/showcase-forge/internal/types"
)

var previewIdea string

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List the stage contracts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := stages.Default()
		if err != nil {
			return fmt.Errorf("failed to load stage contracts: %w", err)
		}

		if previewIdea != "" {
			prompt, err := registry.Prompt(types.StageConcept, &types.ConceptInput{Idea: previewIdea})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "STAGE\tVERSION\tCRITICAL\tTIMEOUT\tWEIGHT")
		for _, c := range registry.Stages() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%d\n", c.Stage, c.Version, c.Critical, c.Timeout, c.ProgressWeight)
		}
		return w.Flush()
	},
}

func init() {
	contractsCmd.Flags().StringVar(&previewIdea, "preview", "", "print the concept prompt built for this idea")
	rootCmd.AddCommand(contractsCmd)
}
