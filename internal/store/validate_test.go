package store

import (
	"strings"
	"testing"
)

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name    string
		run     RunData
		wantErr bool
	}{
		{"ok", RunData{LLM: "gpt4o", Mode: "tree"}, false},
		{"max_length", RunData{LLM: strings.Repeat("a", 64), Mode: "tree"}, false},
		{"missing_mode", RunData{LLM: "gpt4o"}, true},
		{"too_long", RunData{LLM: "gpt4o", Mode: strings.Repeat("m", 65)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRun(&tt.run)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRun() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateResult(t *testing.T) {
	tests := []struct {
		name    string
		res     ResultData
		wantErr bool
	}{
		{"ok", ResultData{App: "clock", Completion: 0.5}, false},
		{"full", ResultData{App: "clock", Completion: 1, Success: true}, false},
		{"negative", ResultData{App: "clock", Completion: -0.1}, true},
		{"above_one", ResultData{App: "clock", Completion: 1.5}, true},
		{"no_app", ResultData{Completion: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResult(&tt.res)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResult() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
