package model

import "time"

// RunStatus is the terminal state of a batch run.
type RunStatus string

const (
	// RunStatusCompleted means the sink reached the target success count.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusAborted means the prompt source was exhausted before the
	// target was reached. Terminal, but not an error in itself.
	RunStatusAborted RunStatus = "aborted"
)

// RunSummary describes the outcome of one batch run over a profile.
type RunSummary struct {
	ID        string        `json:"id"`
	Profile   string        `json:"profile"`
	Status    RunStatus     `json:"status"`
	Target    int           `json:"target"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Resumed   int           `json:"resumed"`
	Duration  time.Duration `json:"duration"`
}

// TargetReached reports whether the run ended with the sink at (or
// already past) the configured target count.
func (s RunSummary) TargetReached() bool {
	return s.Status == RunStatusCompleted
}

// Profiles built into the hosted router deployment. Arbitrary profile
// names are accepted everywhere; these are the ones the experiment
// compares.
const (
	ProfileBalanced = "Balanced"
	ProfileCost     = "Cost"
	ProfileQuality  = "Quality"
)
