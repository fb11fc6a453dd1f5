package domain

import "time"

// CommandResult is the outcome of one dispatched command.
type CommandResult struct {
	Index    int           `json:"index"`
	Command  string        `json:"command"`
	Ticks    int           `json:"ticks"`
	Duration time.Duration `json:"duration_ns"`
	FinalX   float64       `json:"final_x"`
	FinalY   float64       `json:"final_y"`
	Heading  float64       `json:"final_heading"`
	Error    string        `json:"error,omitempty"`
}

// RunReport summarizes one executor run.
type RunReport struct {
	RunID            string          `json:"run_id"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
	Phase            string          `json:"phase"`
	ContourDelivered int             `json:"contour_delivered"`
	Commands         []CommandResult `json:"commands"`
	Error            string          `json:"error,omitempty"`
}
