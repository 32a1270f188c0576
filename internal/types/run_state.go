package types

import (
	"fmt"
	"time"
)

// RunState is the transient state of one pipeline execution.
// StageOutputs only ever grows during a run.
type RunState struct {
	RequestID     string                  `json:"request_id"`
	CreatedAt     time.Time               `json:"created_at"`
	StageOutputs  map[StageID]StageOutput `json:"stage_outputs"`
	CostBreakdown map[StageID]float64     `json:"cost_breakdown"`
	Errors        []StageError            `json:"errors"`
	Showcase      *ShowcaseResult         `json:"showcase,omitempty"`
	ScreenImages  []ScreenImage           `json:"screen_images,omitempty"`
}

// NewRunState creates an empty run state.
func NewRunState(requestID string, now time.Time) *RunState {
	return &RunState{
		RequestID:     requestID,
		CreatedAt:     now,
		StageOutputs:  make(map[StageID]StageOutput),
		CostBreakdown: make(map[StageID]float64),
		Errors:        []StageError{},
	}
}

// Record stores a stage output. A stage already completed in this run is never replaced.
func (s *RunState) Record(output StageOutput) error {
	if output == nil {
		return fmt.Errorf("nil output")
	}
	stage := output.Stage()
	if _, exists := s.StageOutputs[stage]; exists {
		return fmt.Errorf("stage %s already completed in run %s", stage, s.RequestID)
	}
	s.StageOutputs[stage] = output
	return nil
}

// Completed reports whether a stage output has been recorded.
func (s *RunState) Completed(stage StageID) bool {
	_, ok := s.StageOutputs[stage]
	return ok
}

// AddCost accumulates a non-negative cost for a stage.
func (s *RunState) AddCost(stage StageID, cost float64) {
	if cost < 0 {
		cost = 0
	}
	s.CostBreakdown[stage] += cost
}

// AddError appends a stage error.
func (s *RunState) AddError(stage StageID, message string) {
	s.Errors = append(s.Errors, StageError{Stage: stage, Message: message})
}

// TotalCost sums every recorded per-stage cost.
func (s *RunState) TotalCost() float64 {
	total := 0.0
	for _, cost := range s.CostBreakdown {
		total += cost
	}
	return total
}

// Concept returns the recorded concept, or nil.
func (s *RunState) Concept() *ProductConcept {
	c, _ := s.StageOutputs[StageConcept].(*ProductConcept)
	return c
}

// Research returns the recorded research brief, or nil.
func (s *RunState) Research() *ResearchBrief {
	r, _ := s.StageOutputs[StageResearch].(*ResearchBrief)
	return r
}

// Screens returns the recorded screen specs, or nil.
func (s *RunState) Screens() *ScreenSpecs {
	sc, _ := s.StageOutputs[StageScreens].(*ScreenSpecs)
	return sc
}

// ImagePrompts returns the recorded image prompts, or nil.
func (s *RunState) ImagePrompts() *ImagePrompts {
	p, _ := s.StageOutputs[StageImagePrompts].(*ImagePrompts)
	return p
}

// Mockup returns the recorded mockup scene, or nil.
func (s *RunState) Mockup() *MockupScene {
	m, _ := s.StageOutputs[StageMockup].(*MockupScene)
	return m
}

// HasError reports whether an error was recorded for the stage.
func (s *RunState) HasError(stage StageID) bool {
	for _, e := range s.Errors {
		if e.Stage == stage {
			return true
		}
	}
	return false
}
