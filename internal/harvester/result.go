// Package harvester fetches one Helioviewer image per task and drives a
// bounded pool of such fetches over a set of observations.
package harvester

import (
	"solarharvest/internal/models"
)

// Status is the outcome of processing a single task
type Status string

const (
	StatusDownloaded     Status = "downloaded"
	StatusSkipped        Status = "skipped"
	StatusNoImage        Status = "no_image"
	StatusLookupFailed   Status = "lookup_failed"
	StatusDownloadFailed Status = "download_failed"
	StatusStoreFailed    Status = "store_failed"
)

// Failed reports whether the status is a failure worth recording in the manifest
func (s Status) Failed() bool {
	switch s {
	case StatusDownloaded, StatusSkipped:
		return false
	}
	return true
}

// Result is what a worker hands back to the driver for one task
type Result struct {
	Task    models.Task
	Status  Status
	Name    string
	ImageID string
	Bytes   int
	Err     error
}
