package domain

import (
	"time"
)

type StepResult struct {
	Name            string    `json:"name"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	BestEffort      bool      `json:"best_effort,omitempty"`
	Error           string    `json:"error,omitempty"`
}

type Report struct {
	DeploymentID    string       `json:"deployment_id"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	DurationSeconds float64      `json:"duration_seconds"`
	Success         bool         `json:"success"`
	FailedStep      string       `json:"failed_step,omitempty"`
	BackupFile      string       `json:"backup_file,omitempty"`
	Steps           []StepResult `json:"steps"`
}
