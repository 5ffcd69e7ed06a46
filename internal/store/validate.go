package store

import "fmt"

// MaxNameLength is the maximum allowed length for llm and mode names.
// Matches the VARCHAR(64) constraint in the Postgres schema.
const MaxNameLength = 64

// ValidateRun checks a run before it is inserted.
func ValidateRun(run *RunData) error {
	if run.LLM == "" || run.Mode == "" {
		return fmt.Errorf("run requires llm and mode")
	}
	if len(run.LLM) > MaxNameLength || len(run.Mode) > MaxNameLength {
		return fmt.Errorf("run name too long: %d/%d chars (max %d)", len(run.LLM), len(run.Mode), MaxNameLength)
	}
	return nil
}

// ValidateResult checks a result before it is inserted.
func ValidateResult(res *ResultData) error {
	if res.Completion < 0 || res.Completion > 1 {
		return fmt.Errorf("completion %v out of range [0,1]", res.Completion)
	}
	if res.App == "" {
		return fmt.Errorf("result requires an app")
	}
	return nil
}
