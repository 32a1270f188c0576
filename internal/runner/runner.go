// Package runner executes a single stage: prompt construction, cached backend
// calls under a deadline, parsing, repair-aware validation and retries.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonathan/showcase-forge/internal/cache"
	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/schemas"
	"github.com/jonathan/showcase-forge/internal/stages"
	"github.com/jonathan/showcase-forge/internal/types"
)

const (
	// DefaultMaxRetries allows two attempts in total
	DefaultMaxRetries = 1
	// DefaultBackoff is the fixed pause between attempts
	DefaultBackoff = 500 * time.Millisecond
)

// Options controls a single stage execution.
type Options struct {
	RequestID string
	UseCache  bool
}

// Runner runs stages against a generative backend. It is safe for
// concurrent use by multiple pipeline runs.
type Runner struct {
	registry  *stages.Registry
	validator *schemas.Validator
	backend   llm.Backend
	cache     *cache.Cache
	meter     llm.Meter
	logger    observability.Logger
	metrics   *observability.Metrics

	maxRetries int
	backoff    time.Duration
	timeouts   map[types.StageID]time.Duration
	now        func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithCache routes structured stages through c.
func WithCache(c *cache.Cache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithMeter sets the cost meter. The default prices the Gemini models.
func WithMeter(m llm.Meter) Option {
	return func(r *Runner) { r.meter = m }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l observability.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics records stage outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithRetryPolicy sets the retry count and the fixed pause between attempts.
func WithRetryPolicy(maxRetries int, pause time.Duration) Option {
	return func(r *Runner) {
		if maxRetries >= 0 {
			r.maxRetries = maxRetries
		}
		if pause >= 0 {
			r.backoff = pause
		}
	}
}

// WithTimeouts overrides contract deadlines for the given stages.
func WithTimeouts(timeouts map[types.StageID]time.Duration) Option {
	return func(r *Runner) {
		for stage, d := range timeouts {
			if d > 0 {
				r.timeouts[stage] = d
			}
		}
	}
}

// WithClock replaces the clock used for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner.
func New(registry *stages.Registry, validator *schemas.Validator, backend llm.Backend, opts ...Option) *Runner {
	r := &Runner{
		registry:   registry,
		validator:  validator,
		backend:    backend,
		meter:      llm.DefaultPricing(),
		logger:     observability.Nop(),
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		timeouts:   make(map[types.StageID]time.Duration),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the contract registry the runner uses.
func (r *Runner) Registry() *stages.Registry {
	return r.registry
}

// Run executes a structured stage and always returns a terminal result:
// either a value (possibly repaired, possibly with warnings) or an error.
func (r *Runner) Run(ctx context.Context, stage types.StageID, input any, opts Options) types.StageResult {
	start := time.Now()

	contract, err := r.registry.Get(stage)
	if err != nil {
		return r.finish(opts, types.FailedResult(stage, err, 0, 0), start)
	}
	if !stage.IsStructured() {
		err := &llm.ConfigurationError{Message: fmt.Sprintf("stage %s renders images; use RenderImage", stage)}
		return r.finish(opts, types.FailedResult(stage, err, 0, 0), start)
	}

	prompt, err := contract.BuildPrompt(input)
	if err != nil {
		cfgErr := &llm.ConfigurationError{Message: "invalid stage input", Cause: err}
		return r.finish(opts, types.FailedResult(stage, cfgErr, 0, 0), start)
	}

	exec := func(ctx context.Context) types.StageResult {
		return r.execute(ctx, contract, prompt, opts)
	}
	result := r.cache.WithCache(ctx, stage, input, contract.Version, exec, cache.Options{Bypass: !opts.UseCache})
	return r.finish(opts, result, start)
}

// attempt tracks the state shared across retries of one stage
type attempt struct {
	count   int
	cost    float64
	model   string
	best    *schemas.Outcome
	lastErr error
}

func (r *Runner) execute(ctx context.Context, contract stages.Contract, prompt string, opts Options) types.StageResult {
	stage := contract.Stage
	state := &attempt{}
	req := llm.Request{Stage: stage, RequestID: opts.RequestID, Prompt: prompt, Profile: contract.Profile}
	rc := schemas.RepairContext{Version: contract.Version, RequestID: opts.RequestID}

	operation := func() error {
		state.count++
		resp, err := r.call(ctx, req, r.timeoutFor(contract))
		if resp != nil {
			state.cost += r.cost(resp)
			state.model = resp.Model
		}
		if err != nil {
			state.lastErr = err
			if !llm.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		parsed := schemas.ParseResponse(resp.Text)
		if !parsed.Success {
			state.lastErr = parsed.Error
			return parsed.Error
		}

		rc.Now = r.now()
		schemas.InjectMetadata(parsed.Data, types.Metadata{
			Version:     contract.Version,
			RequestID:   opts.RequestID,
			Stage:       stage,
			GeneratedAt: rc.Now.UTC(),
		})

		outcome, err := r.validator.ValidateWithRepair(stage, parsed.Data, rc)
		if err != nil {
			state.lastErr = err
			return backoff.Permanent(err)
		}
		if outcome.Value == nil {
			perr := &schemas.ParseError{Message: "response does not match the stage output type", Cause: outcome.Err(stage)}
			state.lastErr = perr
			return perr
		}

		state.best = outcome
		if outcome.Valid {
			return nil
		}
		state.lastErr = outcome.Err(stage)
		if contract.Critical {
			return state.lastErr
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.backoff), uint64(r.maxRetries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		r.metrics.StageRetried(stage)
		r.logger.Warn().
			Err(err).
			Str("request_id", opts.RequestID).
			Str("stage", string(stage)).
			Int("attempt", state.count).
			Dur("backoff", wait).
			Msg("retrying stage")
	}
	err := backoff.RetryNotify(operation, policy, notify)

	if state.best == nil {
		if state.lastErr != nil {
			err = state.lastErr
		}
		return types.FailedResult(stage, err, state.cost, state.count)
	}

	result := types.StageResult{
		Stage:    stage,
		Value:    state.best.Value,
		CostUSD:  state.cost,
		Attempts: state.count,
		Repaired: state.best.Repaired,
		Model:    state.model,
	}
	if !state.best.Valid {
		result.Warnings = state.best.Messages()
	}
	return result
}

func (r *Runner) timeoutFor(contract stages.Contract) time.Duration {
	if d, ok := r.timeouts[contract.Stage]; ok {
		return d
	}
	return contract.Timeout
}

func (r *Runner) cost(resp *llm.Response) float64 {
	if r.meter == nil {
		return 0
	}
	c := r.meter.Cost(resp.Model, resp.PromptTokens, resp.CompletionTokens)
	if c < 0 {
		return 0
	}
	return c
}

// imageCost is the flat per-image charge, when the meter has one.
func (r *Runner) imageCost(model string) float64 {
	m, ok := r.meter.(llm.ImageMeter)
	if !ok {
		return 0
	}
	return max(m.ImageCost(model), 0)
}

func (r *Runner) finish(opts Options, result types.StageResult, start time.Time) types.StageResult {
	result.Duration = time.Since(start)

	outcome := observability.OutcomeSuccess
	switch {
	case result.ServedFromCache:
		outcome = observability.OutcomeCached
	case !result.OK():
		outcome = observability.OutcomeFailed
	}
	r.metrics.StageFinished(result.Stage, outcome, result.Duration, result.CostUSD)

	event := r.logger.Info()
	if !result.OK() {
		event = r.logger.Warn().Str("error", result.Error)
	}
	event.
		Str("request_id", opts.RequestID).
		Str("stage", string(result.Stage)).
		Int("attempts", result.Attempts).
		Float64("cost_usd", result.CostUSD).
		Bool("cached", result.ServedFromCache).
		Bool("repaired", result.Repaired).
		Int("warnings", len(result.Warnings)).
		Dur("elapsed", result.Duration).
		Msg("stage finished")
	return result
}
