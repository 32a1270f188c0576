package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/pipeline"
	"github.com/jonathan/showcase-forge/internal/types"
)

type fakeStore struct {
	progress    []int
	artifacts   []string
	failSteps   map[string]bool
	failRecords bool
}

func (f *fakeStore) RecordProgress(_ context.Context, _ uuid.UUID, percent int, _ string) error {
	if f.failRecords {
		return errors.New("connection reset")
	}
	f.progress = append(f.progress, percent)
	return nil
}

func (f *fakeStore) SaveArtifact(_ context.Context, _ uuid.UUID, step string, _ any) error {
	if f.failSteps[step] {
		return errors.New("write failed")
	}
	f.artifacts = append(f.artifacts, step)
	return nil
}

func TestProgressSink_SavesEachArtifactOnce(t *testing.T) {
	store := &fakeStore{}
	sink := newProgressSink(store, uuid.New(), observability.Nop())
	concept := &types.ProductConcept{Name: "Night Pages"}

	sink.OnProgress(20, "Concept ready", &pipeline.PartialResult{Concept: concept})
	sink.OnProgress(20, "Researching", nil)
	sink.OnProgress(35, "Research ready", &pipeline.PartialResult{Concept: concept, Research: &types.ResearchBrief{}})
	sink.OnProgress(60, "Screens failed", &pipeline.PartialResult{
		Concept:  concept,
		Research: &types.ResearchBrief{},
		Errors:   []types.StageError{{Stage: types.StageScreens, Message: "blocked"}},
	})

	assert.Equal(t, []int{20, 20, 35, 60}, store.progress)
	assert.Equal(t, []string{StepConcept, StepResearch, StepErrors}, store.artifacts)
}

func TestProgressSink_RetriesFailedArtifacts(t *testing.T) {
	store := &fakeStore{failSteps: map[string]bool{StepConcept: true}, failRecords: true}
	sink := newProgressSink(store, uuid.New(), observability.Nop())
	snap := &pipeline.PartialResult{Concept: &types.ProductConcept{}}

	assert.NotPanics(t, func() { sink.OnProgress(20, "Concept ready", snap) })
	assert.Empty(t, store.artifacts)

	store.failSteps = nil
	store.failRecords = false
	sink.OnProgress(30, "later", snap)
	assert.Equal(t, []string{StepConcept}, store.artifacts)
	assert.Equal(t, []int{30}, store.progress)
}
