package store

import (
	"time"

	"github.com/google/uuid"
)

// GenNewID generates a new UUID v7 (time-ordered).
func GenNewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// RunData is one benchmark run: a single (llm, observation mode) pair scored
// against the task manifest.
type RunData struct {
	ID         uuid.UUID `json:"id" db:"id"`
	LLM        string    `json:"llm" db:"llm"`
	Mode       string    `json:"mode" db:"mode"`
	ConfigHash string    `json:"config_hash" db:"config_hash"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`

	// Set by FinishRun.
	FinishedAt    *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Tasks         int        `json:"tasks" db:"tasks"`
	Missing       int        `json:"missing" db:"missing"`
	SuccessRate   float64    `json:"success_rate" db:"success_rate"`
	AvgCompletion float64    `json:"avg_completion" db:"avg_completion"`
	TokenTotal    int64      `json:"token_total" db:"token_total"`
	// Error is set when the run was aborted; its totals cover the traces
	// scored before the abort.
	Error string `json:"error,omitempty" db:"error"`
}

// ResultData is the score of one trace within a run.
type ResultData struct {
	RunID      uuid.UUID `json:"run_id" db:"run_id"`
	TaskID     int       `json:"task_id" db:"task_id"`
	App        string    `json:"app" db:"app"`
	Success    bool      `json:"success" db:"success"`
	Completion float64   `json:"completion" db:"completion"`
	Steps      int       `json:"steps" db:"steps"`
	Tokens     int64     `json:"tokens" db:"tokens"`
	Error      string    `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Missing reports whether the trace could not be scored at all.
func (r ResultData) Missing() bool {
	return r.Error != ""
}
