//go:build integration
// +build integration

package db

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/pipeline"
	"github.com/jonathan/showcase-forge/internal/types"
)

func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestRunLifecycle_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	requestID := uuid.New().String()
	input := types.IdeaInput{Idea: "a journaling app", Context: map[string]any{"tone": "calm"}}
	runID, err := db.CreateRun(ctx, requestID, input.Idea, input)
	require.NoError(t, err)

	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, requestID, run.RequestID)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	sink := NewProgressSink(db, runID, observability.Nop())
	concept := &types.ProductConcept{Name: "Night Pages"}
	sink.OnProgress(20, "Concept ready", &pipeline.PartialResult{Concept: concept})
	sink.OnProgress(100, "Showcase complete", &pipeline.PartialResult{Concept: concept})

	events, err := db.ListProgress(ctx, runID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 20, events[0].Percent)
	assert.Equal(t, 100, events[1].Percent)

	raw, err := db.GetArtifact(ctx, runID, StepConcept)
	require.NoError(t, err)
	var stored types.ProductConcept
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "Night Pages", stored.Name)

	missing, err := db.GetArtifact(ctx, runID, StepMockup)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, db.CompleteRun(ctx, runID, RunStatusCompleted, 0.42, ""))
	run, err = db.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.InDelta(t, 0.42, run.TotalCostUSD, 1e-9)
	assert.Nil(t, run.Error)
	assert.NotNil(t, run.CompletedAt)
}

func TestGetRun_NotFound_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	run, err := db.GetRun(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, run)
}
