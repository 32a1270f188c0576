package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunState_RecordOnce(t *testing.T) {
	s := NewRunState("req-1", time.Now())

	require.NoError(t, s.Record(&ProductConcept{Name: "Night Pages"}))
	assert.True(t, s.Completed(StageConcept))
	assert.Equal(t, "Night Pages", s.Concept().Name)

	err := s.Record(&ProductConcept{Name: "Other"})
	require.Error(t, err)
	assert.Equal(t, "Night Pages", s.Concept().Name)

	assert.Error(t, s.Record(nil))
	assert.Nil(t, s.Research())
	assert.False(t, s.Completed(StageResearch))
}

func TestRunState_Costs(t *testing.T) {
	s := NewRunState("req-1", time.Now())
	s.AddCost(StageConcept, 0.2)
	s.AddCost(StageConcept, 0.1)
	s.AddCost(StageResearch, -5)
	s.AddCost(StageMockup, 0.3)

	assert.InDelta(t, 0.3, s.CostBreakdown[StageConcept], 1e-9)
	assert.Zero(t, s.CostBreakdown[StageResearch])
	assert.InDelta(t, 0.6, s.TotalCost(), 1e-9)
}

func TestRunState_Errors(t *testing.T) {
	s := NewRunState("req-1", time.Now())
	assert.False(t, s.HasError(StageScreens))

	s.AddError(StageScreens, "schema validation failed")
	assert.True(t, s.HasError(StageScreens))
	assert.Equal(t, "screens: schema validation failed", s.Errors[0].Error())
}

func TestFailedResult(t *testing.T) {
	r := FailedResult(StageResearch, errors.New("timeout"), 0.05, 2)
	assert.False(t, r.OK())
	assert.Equal(t, "timeout", r.Error)
	assert.InDelta(t, 0.05, r.CostUSD, 1e-9)
	assert.Equal(t, 2, r.Attempts)

	assert.Equal(t, "stage failed", FailedResult(StageResearch, nil, 0, 1).Error)
}
