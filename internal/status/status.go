// Package status provides pipeline run status tracking and persistence.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// StepOutcome is the result of a single pipeline step.
type StepOutcome string

const (
	// StepOK marks a step that completed successfully.
	StepOK StepOutcome = "ok"
	// StepFailed marks a step that reported errors.
	StepFailed StepOutcome = "failed"
	// StepSkipped marks a step disabled by a pipeline flag.
	StepSkipped StepOutcome = "skipped"
)

// Step records one pipeline step's outcome.
type Step struct {
	Name       string      `json:"name"`
	Outcome    StepOutcome `json:"outcome"`
	Detail     string      `json:"detail,omitempty"`
	FinishedAt string      `json:"finishedAt"`
}

// RunStatus is the persisted record of the most recent pipeline run.
type RunStatus struct {
	RunID      string `json:"runId"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
	Success    bool   `json:"success"`
	Steps      []Step `json:"steps"`
}

// NewRunStatus starts a fresh run record with a unique id.
func NewRunStatus() *RunStatus {
	return &RunStatus{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Record appends a step outcome.
func (s *RunStatus) Record(name string, outcome StepOutcome, detail string) {
	s.Steps = append(s.Steps, Step{
		Name:       name,
		Outcome:    outcome,
		Detail:     detail,
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// Finish stamps the run as complete. Success is true only when no step
// failed.
func (s *RunStatus) Finish() {
	s.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	s.Success = true
	for _, step := range s.Steps {
		if step.Outcome == StepFailed {
			s.Success = false
			break
		}
	}
}

// Persistence defines the interface for run status persistence.
type Persistence interface {
	// Save saves the run status to persistent storage.
	Save(ctx context.Context, status *RunStatus) error

	// Load loads the last run status from persistent storage.
	// Returns nil if no run has been recorded yet (first run).
	Load(ctx context.Context) (*RunStatus, error)
}

// FilePersistence implements Persistence using the local filesystem.
type FilePersistence struct {
	filePath string
}

// NewFilePersistence creates a new file-based status persistence.
func NewFilePersistence(filePath string) *FilePersistence {
	return &FilePersistence{filePath: filePath}
}

// Save writes the run status to a JSON file via temp file + atomic rename.
func (f *FilePersistence) Save(_ context.Context, status *RunStatus) error {
	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	tempPath := f.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}
	if err := os.Rename(tempPath, f.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// Load reads the last run status. A missing file returns (nil, nil).
func (f *FilePersistence) Load(_ context.Context) (*RunStatus, error) {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}
	return &status, nil
}
