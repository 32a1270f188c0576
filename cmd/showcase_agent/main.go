// Package main provides the showcase_agent command line tool and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "showcase_agent",
	Short: "Showcase Forge pipeline and HTTP API server",
	Long:  "Showcase Forge turns a one-line product idea into a concept, market research, screen specs, a mockup scene and a rendered showcase image.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
