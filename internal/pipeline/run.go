// Package pipeline orchestrates one showcase run: the ordered stages, graceful
// degradation of optional stages, cost aggregation and progress reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/runner"
	"github.com/jonathan/showcase-forge/internal/storage"
	"github.com/jonathan/showcase-forge/internal/types"
)

// Run statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultImageConcurrency bounds parallel screen image renders
const DefaultImageConcurrency = 3

// Result is the terminal outcome of a run.
type Result struct {
	Status       string          `json:"status"`
	RequestID    string          `json:"request_id"`
	State        *types.RunState `json:"state"`
	TotalCostUSD float64         `json:"total_cost_usd"`
	Elapsed      time.Duration   `json:"elapsed_ns"`
	Error        string          `json:"error,omitempty"`
}

// Options controls a single run.
type Options struct {
	// RequestID is generated when empty
	RequestID string
	UseCache  bool
	Sink      ProgressSink
	// RenderScreenImages adds the image prompt stage and one render per screen
	RenderScreenImages bool
}

// Pipeline runs the stage sequence for an idea. It holds no per-run state
// and is safe for concurrent use.
type Pipeline struct {
	runner           *runner.Runner
	assets           storage.AssetStore
	logger           observability.Logger
	metrics          *observability.Metrics
	imageConcurrency int
	now              func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithAssetStore persists rendered images through store.
func WithAssetStore(store storage.AssetStore) Option {
	return func(p *Pipeline) { p.assets = store }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l observability.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records run outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithImageConcurrency bounds parallel screen image renders.
func WithImageConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.imageConcurrency = n
		}
	}
}

// WithClock replaces the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline on top of a stage runner.
func New(r *runner.Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		runner:           r,
		logger:           observability.Nop(),
		imageConcurrency: DefaultImageConcurrency,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries the state of one execution through the steps
type run struct {
	p        *Pipeline
	input    types.IdeaInput
	opts     Options
	state    *types.RunState
	progress *progressTracker
	logger   observability.Logger
}

// Run executes the pipeline. It never panics and never returns an error:
// every path resolves to a Result.
func (p *Pipeline) Run(ctx context.Context, input types.IdeaInput, opts Options) (result *Result) {
	start := time.Now()
	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	opts.RequestID = requestID

	state := types.NewRunState(requestID, p.now().UTC())
	result = &Result{RequestID: requestID, State: state}
	logger := p.logger.With().Str("request_id", requestID).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("pipeline panicked")
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("internal error: %v", rec)
		}
		result.TotalCostUSD = state.TotalCost()
		result.Elapsed = time.Since(start)
		p.metrics.PipelineFinished(result.Status, result.Elapsed)
		logger.Info().
			Str("status", result.Status).
			Float64("cost_usd", result.TotalCostUSD).
			Int("errors", len(state.Errors)).
			Dur("elapsed", result.Elapsed).
			Msg("pipeline finished")
	}()

	if err := input.Validate(); err != nil {
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("invalid input: %v", err)
		return result
	}

	plan := planFor(opts)
	weights := make([]int, len(plan))
	registry := p.runner.Registry()
	for i, step := range plan {
		if contract, err := registry.Get(step.Stage); err == nil {
			weights[i] = contract.ProgressWeight
		}
	}

	r := &run{
		p:        p,
		input:    input,
		opts:     opts,
		state:    state,
		progress: newProgressTracker(opts.Sink, logger, weights),
		logger:   logger,
	}
	logger.Info().
		Str("idea", input.Idea).
		Str("platform", input.ContextString("platform")).
		Int("steps", len(plan)).
		Bool("use_cache", opts.UseCache).
		Msg("pipeline started")

	for i, step := range plan {
		if err := r.step(ctx, step, weights[i]); err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return result
		}
	}

	result.Status = StatusCompleted
	snap := snapshotOf(state)
	r.progress.finish(finishMessage(state), &snap)
	return result
}

// step runs one plan entry. Only a failed critical stage returns an error.
func (r *run) step(ctx context.Context, step stepDefinition, weight int) error {
	if dep, missing := step.missingDependency(r.state); missing {
		msg := fmt.Sprintf("skipped: %s unavailable", dep)
		r.state.AddError(step.Stage, msg)
		r.logger.Warn().Str("stage", string(step.Stage)).Str("missing", string(dep)).Msg("stage skipped")
		r.advance(weight, fmt.Sprintf("Skipped %s", step.Stage))
		return nil
	}

	// The first progress event of a run is the concept completion.
	if step.Stage != types.StageConcept {
		r.progress.tick(step.Start)
	}

	switch step.Stage {
	case types.StageShowcase:
		r.showcase(ctx)
	case types.StageImagePrompts:
		r.structured(ctx, step.Stage)
		r.screenImages(ctx)
	default:
		res := r.structured(ctx, step.Stage)
		if !res.OK() && step.Stage == types.StageConcept {
			return fmt.Errorf("concept stage failed: %s", res.Error)
		}
	}

	r.advance(weight, completionMessage(step.Stage, r.state))
	return nil
}

func (r *run) advance(weight int, message string) {
	snap := snapshotOf(r.state)
	r.progress.advance(weight, message, &snap)
}

func (r *run) runnerOptions() runner.Options {
	return runner.Options{RequestID: r.opts.RequestID, UseCache: r.opts.UseCache}
}

// structured runs a schema-validated stage and records its outcome
func (r *run) structured(ctx context.Context, stage types.StageID) types.StageResult {
	res := r.p.runner.Run(ctx, stage, r.stageInput(stage), r.runnerOptions())
	r.state.AddCost(stage, res.CostUSD)
	if !res.OK() {
		r.state.AddError(stage, res.Error)
		return res
	}
	if err := r.state.Record(res.Value); err != nil {
		r.state.AddError(stage, err.Error())
		return types.FailedResult(stage, err, res.CostUSD, res.Attempts)
	}
	for _, w := range res.Warnings {
		r.logger.Debug().Str("stage", string(stage)).Str("warning", w).Msg("accepted with schema warnings")
	}
	return res
}

func (r *run) stageInput(stage types.StageID) any {
	s := r.state
	switch stage {
	case types.StageConcept:
		return &types.ConceptInput{Idea: r.input.Idea, Context: r.input.Context}
	case types.StageResearch:
		return &types.ResearchInput{Idea: r.input.Idea, Concept: s.Concept()}
	case types.StageScreens:
		return &types.ScreensInput{Concept: s.Concept(), Research: s.Research()}
	case types.StageImagePrompts:
		return &types.ImagePromptsInput{Concept: s.Concept(), Screens: s.Screens()}
	case types.StageMockup:
		return &types.MockupInput{Concept: s.Concept(), Screens: s.Screens()}
	case types.StageShowcase:
		return &types.ShowcaseInput{Mockup: s.Mockup(), Screens: s.Screens(), Concept: s.Concept()}
	default:
		return nil
	}
}

// showcase renders the final image and persists it when a store is configured.
// A persistence failure is recorded without undoing the render.
func (r *run) showcase(ctx context.Context) {
	res := r.p.runner.RenderImage(ctx, types.StageShowcase, r.stageInput(types.StageShowcase), r.runnerOptions())
	r.state.AddCost(types.StageShowcase, res.CostUSD)
	if res.Success {
		r.persist(ctx, types.StageShowcase, "showcase", &res)
	} else {
		r.state.AddError(types.StageShowcase, res.Error)
	}
	r.state.Showcase = &res
}

// screenImages renders one image per prompt with bounded concurrency.
// Failures are recorded per screen and never abort the run.
func (r *run) screenImages(ctx context.Context) {
	prompts := r.state.ImagePrompts()
	if prompts == nil || len(prompts.Prompts) == 0 {
		return
	}

	images := make([]types.ScreenImage, len(prompts.Prompts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.p.imageConcurrency)
	for i, prompt := range prompts.Prompts {
		g.Go(func() error {
			input := &types.ScreenImageInput{Prompt: prompt, Concept: r.state.Concept()}
			images[i] = types.ScreenImage{
				ScreenID: prompt.ScreenID,
				Image:    r.p.runner.RenderImage(gctx, types.StageShowcase, input, r.runnerOptions()),
			}
			return nil
		})
	}
	_ = g.Wait()

	// Per-screen failures are collected by index and recorded in screen
	// order once every upload has finished.
	failures := make([]string, len(images))
	persist := errgroup.Group{}
	persist.SetLimit(r.p.imageConcurrency)
	for i := range images {
		img := &images[i]
		if !img.Image.Success {
			failures[i] = fmt.Sprintf("screen %s: %s", img.ScreenID, img.Image.Error)
			continue
		}
		persist.Go(func() error {
			if err := r.store(ctx, "screen-"+img.ScreenID, &img.Image); err != nil {
				failures[i] = fmt.Sprintf("screen %s: %v", img.ScreenID, err)
			}
			return nil
		})
	}
	_ = persist.Wait()

	for i := range images {
		r.state.AddCost(types.StageImagePrompts, images[i].Image.CostUSD)
		if failures[i] != "" {
			r.state.AddError(types.StageImagePrompts, failures[i])
		}
	}
	r.state.ScreenImages = images
}

func (r *run) persist(ctx context.Context, stage types.StageID, name string, res *types.ShowcaseResult) {
	if err := r.store(ctx, name, res); err != nil {
		r.state.AddError(stage, err.Error())
	}
}

// store uploads an image and fills in its storage key and URL
func (r *run) store(ctx context.Context, name string, res *types.ShowcaseResult) error {
	if r.p.assets == nil {
		return nil
	}
	key := storage.AssetKey(r.opts.RequestID, name, res.MIMEType)
	url, err := r.p.assets.Put(ctx, key, res.Data, res.MIMEType)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("asset persistence failed")
		return fmt.Errorf("persist %s: %w", key, err)
	}
	res.StorageKey = key
	res.URL = url
	return nil
}

func completionMessage(stage types.StageID, state *types.RunState) string {
	if state.HasError(stage) && !state.Completed(stage) && stage != types.StageShowcase {
		return fmt.Sprintf("%s unavailable, continuing", stage)
	}
	switch stage {
	case types.StageConcept:
		if c := state.Concept(); c != nil {
			return fmt.Sprintf("Concept ready: %s", c.Name)
		}
	case types.StageResearch:
		return "Market research ready"
	case types.StageScreens:
		if s := state.Screens(); s != nil {
			return fmt.Sprintf("%d screens designed", len(s.Screens))
		}
	case types.StageImagePrompts:
		rendered := 0
		for _, img := range state.ScreenImages {
			if img.Image.Success {
				rendered++
			}
		}
		return fmt.Sprintf("%d screen images rendered", rendered)
	case types.StageMockup:
		return "Mockup composed"
	case types.StageShowcase:
		if state.Showcase != nil && state.Showcase.Success {
			return "Showcase rendered"
		}
		return "Showcase unavailable"
	}
	return fmt.Sprintf("%s complete", stage)
}

func finishMessage(state *types.RunState) string {
	if len(state.Errors) == 0 {
		return "Showcase complete"
	}
	return fmt.Sprintf("Showcase complete with %d issue(s)", len(state.Errors))
}

// IsFailed reports whether a result is a failed run.
func (r *Result) IsFailed() bool {
	return r == nil || r.Status == StatusFailed
}

// Err returns the run error, or nil for completed runs.
func (r *Result) Err() error {
	if r == nil {
		return errors.New("no result")
	}
	if r.Status == StatusFailed {
		return errors.New(r.Error)
	}
	return nil
}
