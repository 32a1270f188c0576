package db

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact steps stored per run
const (
	StepConcept  = "concept"
	StepResearch = "research"
	StepScreens  = "screens"
	StepImages   = "screen_images"
	StepMockup   = "mockup"
	StepShowcase = "showcase"
	StepErrors   = "errors"
)

// Run represents a pipeline run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	RequestID    string     `json:"request_id"`
	Idea         string     `json:"idea"`
	Status       string     `json:"status"`
	TotalCostUSD float64    `json:"total_cost_usd"`
	Error        *string    `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ProgressEvent is one recorded progress tick
type ProgressEvent struct {
	ID        int64     `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
