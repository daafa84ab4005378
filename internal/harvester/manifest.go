package harvester

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solarharvest/internal/fetchers"
)

// FailureRecord is one failed task in the manifest
type FailureRecord struct {
	Timestamp  string `json:"timestamp"`
	SourceID   int    `json:"source_id"`
	Wavelength int    `json:"wavelength"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	ImageID    string `json:"image_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Manifest lists the failed tasks of one run so they can be inspected or retried
type Manifest struct {
	RunID       string          `json:"run_id"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Total       int             `json:"total"`
	Counts      map[Status]int  `json:"counts"`
	Interrupted bool            `json:"interrupted"`
	Failures    []FailureRecord `json:"failures"`
}

func newFailureRecord(r Result) FailureRecord {
	record := FailureRecord{
		Timestamp:  r.Task.Timestamp.UTC().Format(fetchers.HelioviewerDateLayout),
		SourceID:   r.Task.Channel.SourceID,
		Wavelength: r.Task.Channel.Wavelength,
		Name:       r.Name,
		Status:     r.Status,
		ImageID:    r.ImageID,
	}
	if r.Err != nil {
		record.Error = r.Err.Error()
	}
	return record
}

// WriteManifest writes m as indented JSON to path. The file is replaced atomically.
func WriteManifest(path string, m *Manifest) error {
	if m.Failures == nil {
		m.Failures = []FailureRecord{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal failure manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".failures-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write failure manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close failure manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move failure manifest into place: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read failure manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse failure manifest: %w", err)
	}
	return &m, nil
}
