package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/types"
)

// RenderImage asks an image-capable backend for a picture built from the
// stage prompt. Image stages bypass the cache and the schema validator but
// share the deadline and retry policy of structured stages.
func (r *Runner) RenderImage(ctx context.Context, stage types.StageID, input any, opts Options) types.ShowcaseResult {
	start := time.Now()
	result := r.renderImage(ctx, stage, input, opts)

	elapsed := time.Since(start)
	outcome := observability.OutcomeSuccess
	event := r.logger.Info()
	if !result.Success {
		outcome = observability.OutcomeFailed
		event = r.logger.Warn().Str("error", result.Error)
	}
	r.metrics.StageFinished(stage, outcome, elapsed, result.CostUSD)
	event.
		Str("request_id", opts.RequestID).
		Str("stage", string(stage)).
		Int("attempts", result.Attempts).
		Float64("cost_usd", result.CostUSD).
		Int("bytes", len(result.Data)).
		Dur("elapsed", elapsed).
		Msg("image rendered")
	return result
}

func (r *Runner) renderImage(ctx context.Context, stage types.StageID, input any, opts Options) types.ShowcaseResult {
	contract, err := r.registry.Get(stage)
	if err != nil {
		return types.ShowcaseResult{Error: err.Error()}
	}
	prompt, err := contract.BuildPrompt(input)
	if err != nil {
		return types.ShowcaseResult{Error: (&llm.ConfigurationError{Message: "invalid image input", Cause: err}).Error()}
	}

	result := types.ShowcaseResult{Prompt: prompt}
	req := llm.Request{Stage: stage, RequestID: opts.RequestID, Prompt: prompt, Profile: contract.Profile, Image: true}

	var image *llm.InlineData
	operation := func() error {
		result.Attempts++
		resp, err := r.call(ctx, req, r.timeoutFor(contract))
		if resp != nil {
			result.CostUSD += r.cost(resp)
			result.Model = resp.Model
		}
		if err != nil {
			if !llm.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if resp.Image == nil || len(resp.Image.Data) == 0 {
			return &llm.TransportError{Message: fmt.Sprintf("stage %s returned no image", stage)}
		}
		image = resp.Image
		result.CostUSD += r.imageCost(resp.Model)
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
			Int("attempt", result.Attempts).
			Dur("backoff", wait).
			Msg("retrying image")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil || image == nil {
		if err == nil {
			err = &llm.TransportError{Message: "no image produced"}
		}
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Data = image.Data
	result.MIMEType = image.MIMEType
	if result.MIMEType == "" || result.MIMEType == "application/octet-stream" {
		result.MIMEType = mimetype.Detect(image.Data).String()
	}
	return result
}
