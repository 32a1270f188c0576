package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/showcase-forge/internal/config"
	"github.com/jonathan/showcase-forge/internal/db"
	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/pipeline"
	"github.com/jonathan/showcase-forge/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the showcase pipeline end-to-end",
	Long: `Runs concept -> research -> screens -> mockup -> showcase for a product idea, printing progress as each stage completes.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath    string
	runIdea          string
	runPlatform      string
	runIndustry      string
	runTone          string
	runAudience      string
	runContextJSON   string
	runNoCache       bool
	runRenderScreens bool
	runAssetDir      string
	runS3Bucket      string
	runDatabaseURL   string
	runOut           string
	runAPIKey        string
	runVerbose       bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runIdea, "idea", "i", "", "Product idea to showcase")
	runCommand.Flags().StringVar(&runPlatform, "platform", "", "Target platform hint (mobile, web, desktop)")
	runCommand.Flags().StringVar(&runIndustry, "industry", "", "Industry hint")
	runCommand.Flags().StringVar(&runTone, "tone", "", "Brand tone hint")
	runCommand.Flags().StringVar(&runAudience, "audience", "", "Target audience hint")
	runCommand.Flags().StringVar(&runContextJSON, "context-json", "", "Additional context hints as a JSON object")
	runCommand.Flags().BoolVar(&runNoCache, "no-cache", false, "Bypass the content cache")
	runCommand.Flags().BoolVar(&runRenderScreens, "render-screens", false, "Render one image per screen before the showcase")
	runCommand.Flags().StringVar(&runAssetDir, "asset-dir", "", "Directory to write rendered images to")
	runCommand.Flags().StringVar(&runS3Bucket, "s3-bucket", "", "S3 bucket to upload rendered images to")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().StringVarP(&runOut, "out", "o", "", "Write the result JSON to this file")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print every artifact once the run finishes")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	runCommand.MarkFlagsMutuallyExclusive("asset-dir", "s3-bucket")

	rootCmd.AddCommand(runCommand)
}

// applyRunFlags copies explicitly set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("idea") {
		cfg.Idea = runIdea
	}
	if flags.Changed("platform") {
		cfg.Platform = runPlatform
	}
	if flags.Changed("industry") {
		cfg.Industry = runIndustry
	}
	if flags.Changed("tone") {
		cfg.Tone = runTone
	}
	if flags.Changed("audience") {
		cfg.Audience = runAudience
	}
	if flags.Changed("no-cache") {
		cfg.NoCache = runNoCache
	}
	if flags.Changed("render-screens") {
		cfg.RenderScreens = runRenderScreens
	}
	if flags.Changed("asset-dir") {
		cfg.AssetDir = runAssetDir
		cfg.S3Bucket = ""
	}
	if flags.Changed("s3-bucket") {
		cfg.S3Bucket = runS3Bucket
		cfg.AssetDir = ""
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if flags.Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if flags.Changed("verbose") {
		cfg.Verbose = runVerbose
	}
}

// buildIdeaInput combines the configured hints with --context-json.
// Explicit hint flags win over keys from the JSON object.
func buildIdeaInput(cfg config.Config, contextJSON string) (types.IdeaInput, error) {
	input := types.IdeaInput{Idea: strings.TrimSpace(cfg.Idea), Context: map[string]any{}}
	if strings.TrimSpace(contextJSON) != "" {
		if err := json.Unmarshal([]byte(contextJSON), &input.Context); err != nil {
			return input, fmt.Errorf("--context-json must be a JSON object: %w", err)
		}
	}
	for k, v := range cfg.IdeaContext() {
		input.Context[k] = v
	}
	if len(input.Context) == 0 {
		input.Context = nil
	}
	if err := input.Validate(); err != nil {
		return input, fmt.Errorf("--idea is required (or set idea in config file)")
	}
	return input, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(runConfigPath, func(c *config.Config) { applyRunFlags(cmd, c) })
	if err != nil {
		return err
	}
	input, err := buildIdeaInput(cfg, runContextJSON)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.AppEnv)
	if !cfg.Verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := pipeline.Options{
		RequestID:          uuid.NewString(),
		UseCache:           !cfg.NoCache,
		RenderScreenImages: cfg.RenderScreens,
		Sink:               progressPrinter(out),
	}

	var recorder *runRecorder
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		recorder = startRunRecord(ctx, database, input, &opts, logger)
	}

	_, _ = fmt.Fprintf(out, "Showcasing: %s\n", input.Idea)
	result := a.pipeline.Run(ctx, input, opts)
	recorder.complete(ctx, result)

	report := newRunReport(result)
	if cfg.Verbose {
		printArtifacts(out, report.Result)
	}
	_, _ = fmt.Fprintf(out, "Status: %s  Cost: $%.4f  Elapsed: %s\n", result.Status, result.TotalCostUSD, result.Elapsed.Round(time.Millisecond))

	if runOut != "" {
		if err := writeReport(runOut, report); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Result written to %s\n", runOut)
	}

	return result.Err()
}

// runRecorder persists a CLI run when a database is configured.
type runRecorder struct {
	db     *db.DB
	runID  uuid.UUID
	logger observability.Logger
}

func startRunRecord(ctx context.Context, database *db.DB, input types.IdeaInput, opts *pipeline.Options, logger observability.Logger) *runRecorder {
	runID, err := database.CreateRun(ctx, opts.RequestID, input.Idea, input)
	if err != nil {
		logger.Warn().Err(err).Str("request_id", opts.RequestID).Msg("run not persisted")
		return nil
	}
	opts.Sink = pipeline.MultiSink{opts.Sink, db.NewProgressSink(database, runID, logger)}
	return &runRecorder{db: database, runID: runID, logger: logger}
}

func (r *runRecorder) complete(ctx context.Context, result *pipeline.Result) {
	if r == nil {
		return
	}
	if err := r.db.CompleteRun(context.WithoutCancel(ctx), r.runID, result.Status, result.TotalCostUSD, result.Error); err != nil {
		r.logger.Warn().Err(err).Str("run_id", r.runID.String()).Msg("failed to complete run record")
	}
}

// runReport is the JSON document written by --out.
type runReport struct {
	Status       string                 `json:"status"`
	RequestID    string                 `json:"request_id"`
	TotalCostUSD float64                `json:"total_cost_usd"`
	ElapsedMS    int64                  `json:"elapsed_ms"`
	Error        string                 `json:"error,omitempty"`
	Result       pipeline.PartialResult `json:"result"`
}

func newRunReport(result *pipeline.Result) runReport {
	return runReport{
		Status:       result.Status,
		RequestID:    result.RequestID,
		TotalCostUSD: result.TotalCostUSD,
		ElapsedMS:    result.Elapsed.Milliseconds(),
		Error:        result.Error,
		Result:       pipeline.ExtractPartialResult(result),
	}
}

func writeReport(path string, report runReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// progressPrinter prints one line per progress event.
func progressPrinter(out io.Writer) pipeline.ProgressSink {
	return pipeline.SinkFunc(func(percent int, message string, _ *pipeline.PartialResult) {
		_, _ = fmt.Fprintf(out, "[%3d%%] %s\n", percent, message)
	})
}

func printArtifacts(out io.Writer, partial pipeline.PartialResult) {
	p := observability.NewPrinter(out)
	p.PrintConcept(partial.Concept)
	p.PrintResearch(partial.Research)
	p.PrintScreens(partial.Screens)
	p.PrintMockup(partial.Mockup)
	p.PrintShowcase(partial.Showcase)
	p.PrintErrors(partial.Errors)
}
