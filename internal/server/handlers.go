package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonathan/showcase-forge/internal/cache"
	"github.com/jonathan/showcase-forge/internal/db"
	"github.com/jonathan/showcase-forge/internal/pipeline"
	"github.com/jonathan/showcase-forge/internal/types"
)

// maxRequestBytes bounds pipeline request bodies
const maxRequestBytes = 64 << 10

// PipelineRequest represents the request body for the pipeline endpoints
type PipelineRequest struct {
	Idea          string         `json:"idea"`
	Context       map[string]any `json:"context,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	UseCache      *bool          `json:"use_cache,omitempty"`
	RenderScreens *bool          `json:"render_screens,omitempty"`
}

// PipelineResponse is the blocking response and the final stream event
type PipelineResponse struct {
	Status       string                 `json:"status"`
	RequestID    string                 `json:"request_id"`
	TotalCostUSD float64                `json:"total_cost_usd"`
	ElapsedMS    int64                  `json:"elapsed_ms"`
	Error        string                 `json:"error,omitempty"`
	Result       pipeline.PartialResult `json:"result"`
}

func newPipelineResponse(result *pipeline.Result) PipelineResponse {
	return PipelineResponse{
		Status:       result.Status,
		RequestID:    result.RequestID,
		TotalCostUSD: result.TotalCostUSD,
		ElapsedMS:    result.Elapsed.Milliseconds(),
		Error:        result.Error,
		Result:       pipeline.ExtractPartialResult(result),
	}
}

// decodePipelineRequest parses and validates a request body
func (s *Server) decodePipelineRequest(w http.ResponseWriter, r *http.Request) (types.IdeaInput, pipeline.Options, error) {
	var req PipelineRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return types.IdeaInput{}, pipeline.Options{}, &ErrValidation{Field: "body", Message: err.Error(), Cause: err}
	}

	input := types.IdeaInput{Idea: strings.TrimSpace(req.Idea), Context: req.Context}
	if err := input.Validate(); err != nil {
		return input, pipeline.Options{}, &ErrValidation{Field: "idea", Message: "idea is required"}
	}

	opts := pipeline.Options{
		RequestID:          req.RequestID,
		UseCache:           true,
		RenderScreenImages: s.cfg.RenderScreens,
	}
	if req.UseCache != nil {
		opts.UseCache = *req.UseCache
	}
	if req.RenderScreens != nil {
		opts.RenderScreenImages = *req.RenderScreens
	}
	return input, opts, nil
}

// handleRun runs the pipeline and returns the final result
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	input, opts, err := s.decodePipelineRequest(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	result := s.execute(r.Context(), input, opts)
	s.jsonResponse(w, http.StatusOK, newPipelineResponse(result))
}

// handleRunStream runs the pipeline, streaming progress as Server-Sent Events
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	input, opts, err := s.decodePipelineRequest(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w, s.logger)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts.Sink = sse
	result := s.execute(r.Context(), input, opts)

	if result.Status == pipeline.StatusFailed {
		sse.WriteError(result.Error)
	}
	sse.WriteComplete(newPipelineResponse(result))
}

// execute runs the pipeline, recording the run when a database is configured
func (s *Server) execute(ctx context.Context, input types.IdeaInput, opts pipeline.Options) *pipeline.Result {
	if s.db == nil {
		return s.pipeline.Run(ctx, input, opts)
	}

	if opts.RequestID == "" {
		opts.RequestID = newRequestID()
	}
	runID, err := s.db.CreateRun(ctx, opts.RequestID, input.Idea, input)
	if err != nil {
		s.logger.Warn().Err(err).Str("request_id", opts.RequestID).Msg("run not persisted")
		return s.pipeline.Run(ctx, input, opts)
	}

	dbSink := db.NewProgressSink(s.db, runID, s.logger)
	if opts.Sink != nil {
		opts.Sink = pipeline.MultiSink{opts.Sink, dbSink}
	} else {
		opts.Sink = dbSink
	}
	result := s.pipeline.Run(ctx, input, opts)

	// the request context may already be cancelled; completion must still land
	if err := s.db.CompleteRun(context.WithoutCancel(ctx), runID, result.Status, result.TotalCostUSD, result.Error); err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID.String()).Msg("failed to complete run")
	}
	return result
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": fmt.Sprintf("unreachable: %v", err),
			})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CacheResponse reports content cache counters
type CacheResponse struct {
	Entries   int   `json:"entries"`
	Purged    int   `json:"purged,omitempty"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Expired   int64 `json:"expired"`
	Evictions int64 `json:"evictions"`
}

func newCacheResponse(stats cache.Stats) CacheResponse {
	return CacheResponse{
		Entries:   stats.Entries,
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Expired:   stats.Expired,
		Evictions: stats.Evictions,
	}
}

// handleCacheStats returns the content cache counters
func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, newCacheResponse(s.cache.Stats()))
}

// handlePurgeCache drops every cached stage output
func (s *Server) handlePurgeCache(w http.ResponseWriter, _ *http.Request) {
	purged := s.cache.Len()
	s.cache.Purge()
	s.logger.Info().Int("entries", purged).Msg("content cache purged")

	resp := newCacheResponse(s.cache.Stats())
	resp.Purged = purged
	s.jsonResponse(w, http.StatusOK, resp)
}
