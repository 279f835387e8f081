package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
)

const (
	lastRunFile = "last_run.json"
)

// LastRun is the persisted outcome of the most recent CLI call.
type LastRun struct {
	Command  string    `json:"command"`
	Provider string    `json:"provider"`
	Agent    string    `json:"agent"`
	Model    string    `json:"model"`
	At       time.Time `json:"at"`

	// Error is empty when the call succeeded.
	Error string `json:"error,omitempty"`

	// Repaired is set when the reply needed the repair round-trip.
	Repaired bool `json:"repaired,omitempty"`

	// Exchange is the rendered HTTP exchange, joined across round-trips.
	Exchange string `json:"exchange"`
}

// Succeeded reports whether the run ended without an error.
func (r *LastRun) Succeeded() bool {
	return r.Error == ""
}

// LoadLastRun loads the last run from a target .scribe/last_run.json.
// Returns nil, nil if nothing was recorded yet.
func (m *Manager) LoadLastRun(overrideDir string) (*LastRun, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, lastRunFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	run := &LastRun{}
	if err := sonic.ConfigStd.Unmarshal(data, run); err != nil {
		return nil, fmt.Errorf("parsing last run: %w", err)
	}

	return run, nil
}

// SaveLastRun persists run, replacing any previous record. The exchange is
// already redacted, but it still holds prompts, so the file is owner-only.
func (m *Manager) SaveLastRun(run *LastRun, overrideDir string) error {
	if run == nil {
		return errors.New("cannot save nil last run")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last run: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, lastRunFile), data, 0o600); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}

	return nil
}

// ClearLastRun removes the record. Returns nil if there is none.
func (m *Manager) ClearLastRun(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, lastRunFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing last run: %w", err)
	}

	return nil
}
