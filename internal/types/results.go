package types

import (
	"fmt"
	"time"
)

// StageResult is the terminal outcome of running one stage.
// Exactly one of Value and Error is populated.
type StageResult struct {
	Stage           StageID       `json:"stage"`
	Value           StageOutput   `json:"value,omitempty"`
	Error           string        `json:"error,omitempty"`
	CostUSD         float64       `json:"cost_usd"`
	Attempts        int           `json:"attempts"`
	Repaired        bool          `json:"repaired"`
	ServedFromCache bool          `json:"served_from_cache"`
	Warnings        []string      `json:"warnings,omitempty"`
	Model           string        `json:"model,omitempty"`
	Duration        time.Duration `json:"duration_ns"`
}

// OK reports whether the stage produced a usable value.
func (r StageResult) OK() bool {
	return r.Error == "" && r.Value != nil
}

// FailedResult builds an error StageResult, keeping the cost already spent.
func FailedResult(stage StageID, err error, cost float64, attempts int) StageResult {
	msg := "stage failed"
	if err != nil {
		msg = err.Error()
	}
	return StageResult{
		Stage:    stage,
		Error:    msg,
		CostUSD:  cost,
		Attempts: attempts,
	}
}

// StageError records a stage that failed or was skipped during a run.
type StageError struct {
	Stage   StageID `json:"stage"`
	Message string  `json:"message"`
}

func (e StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// ShowcaseResult is the outcome of rendering the final showcase image.
type ShowcaseResult struct {
	Success    bool    `json:"success"`
	MIMEType   string  `json:"mime_type,omitempty"`
	StorageKey string  `json:"storage_key,omitempty"`
	URL        string  `json:"url,omitempty"`
	Prompt     string  `json:"prompt,omitempty"`
	Model      string  `json:"model,omitempty"`
	CostUSD    float64 `json:"cost_usd"`
	Attempts   int     `json:"attempts"`
	Error      string  `json:"error,omitempty"`
	Data       []byte  `json:"-"`
}

// ScreenImage is a rendered image for one screen.
type ScreenImage struct {
	ScreenID string         `json:"screen_id"`
	Image    ShowcaseResult `json:"image"`
}
