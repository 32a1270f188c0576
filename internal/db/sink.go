package db

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/pipeline"
)

// progressStore is the part of DB the sink writes through
type progressStore interface {
	RecordProgress(ctx context.Context, runID uuid.UUID, percent int, message string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
}

// ProgressSink persists pipeline progress for one run. Every tick becomes a
// run_progress row and each artifact is saved the first time it appears in
// a snapshot. Write failures are logged and never reach the pipeline.
type ProgressSink struct {
	store   progressStore
	runID   uuid.UUID
	logger  observability.Logger
	timeout time.Duration

	mu    sync.Mutex
	saved map[string]bool
}

// NewProgressSink creates a sink writing to db for runID.
func NewProgressSink(db *DB, runID uuid.UUID, logger observability.Logger) *ProgressSink {
	return newProgressSink(db, runID, logger)
}

func newProgressSink(store progressStore, runID uuid.UUID, logger observability.Logger) *ProgressSink {
	return &ProgressSink{
		store:   store,
		runID:   runID,
		logger:  logger,
		timeout: 5 * time.Second,
		saved:   make(map[string]bool),
	}
}

// OnProgress implements pipeline.ProgressSink
func (s *ProgressSink) OnProgress(percent int, message string, snapshot *pipeline.PartialResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.store.RecordProgress(ctx, s.runID, percent, message); err != nil {
		s.logger.Warn().Err(err).Str("run_id", s.runID.String()).Msg("failed to persist progress")
	}
	if snapshot == nil {
		return
	}

	artifacts := []struct {
		step    string
		present bool
		content any
	}{
		{StepConcept, snapshot.Concept != nil, snapshot.Concept},
		{StepResearch, snapshot.Research != nil, snapshot.Research},
		{StepScreens, snapshot.Screens != nil, snapshot.Screens},
		{StepImages, len(snapshot.Images) > 0, snapshot.Images},
		{StepMockup, snapshot.Mockup != nil, snapshot.Mockup},
		{StepShowcase, snapshot.Showcase != nil, snapshot.Showcase},
	}
	for _, a := range artifacts {
		if !a.present || s.saved[a.step] {
			continue
		}
		if err := s.store.SaveArtifact(ctx, s.runID, a.step, a.content); err != nil {
			s.logger.Warn().Err(err).Str("run_id", s.runID.String()).Str("step", a.step).Msg("failed to persist artifact")
			continue
		}
		s.saved[a.step] = true
	}

	// errors only grow, so the latest list replaces the previous one
	if len(snapshot.Errors) > 0 {
		if err := s.store.SaveArtifact(ctx, s.runID, StepErrors, snapshot.Errors); err != nil {
			s.logger.Warn().Err(err).Str("run_id", s.runID.String()).Msg("failed to persist run errors")
		}
	}
}

var _ pipeline.ProgressSink = (*ProgressSink)(nil)
