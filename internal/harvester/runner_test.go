package harvester

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"solarharvest/internal/fetchers"
	"solarharvest/internal/mocks"
	"solarharvest/internal/models"
	"solarharvest/internal/storage"

	"gocloud.dev/blob/memblob"
)

func newFetcher(hv *mocks.Helioviewer) *fetchers.HelioviewerFetcher {
	return fetchers.NewHelioviewerFetcher(fetchers.HelioviewerOptions{
		BaseURL:         hv.URL(),
		Scale:           16,
		LookupTimeout:   5 * time.Second,
		DownloadTimeout: 5 * time.Second,
	})
}

var newYearObservation = []models.Observation{
	{Timestamp: time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), Index: 3.2},
}

func TestRunSingleObservationProducesFiveArtifacts(t *testing.T) {
	ctx := context.Background()
	hv := mocks.NewHelioviewer(t)
	store := newLocalStore(t)
	manifestPath := filepath.Join(t.TempDir(), "failures.json")

	runner := NewRunner(NewWorker(newFetcher(hv), store, true), RunnerOptions{
		Workers:      4,
		ManifestPath: manifestPath,
	})

	summary, err := runner.Run(ctx, newYearObservation)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Total != 5 || summary.Processed != 5 {
		t.Errorf("Expected 5 tasks processed, got total=%d processed=%d", summary.Total, summary.Processed)
	}
	if summary.Downloaded() != 5 {
		t.Errorf("Expected 5 downloads, got %d", summary.Downloaded())
	}
	if summary.Interrupted {
		t.Error("Expected run not to be interrupted")
	}
	if summary.RunID == "" {
		t.Error("Expected a run id")
	}

	files, err := store.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	want := []string{
		"20140101_120000_AIA_171.jpg",
		"20140101_120000_AIA_193.jpg",
		"20140101_120000_AIA_211.jpg",
		"20140101_120000_AIA_304.jpg",
		"20140101_120000_AIA_335.jpg",
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Expected files %v, got %v", want, files)
	}

	manifest, err := ReadManifest(manifestPath)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}
	if len(manifest.Failures) != 0 {
		t.Errorf("Expected empty manifest, got %d failures", len(manifest.Failures))
	}
	if manifest.RunID != summary.RunID {
		t.Errorf("Manifest run id %s does not match summary %s", manifest.RunID, summary.RunID)
	}
}

func TestRunTwiceConverges(t *testing.T) {
	ctx := context.Background()
	hv := mocks.NewHelioviewer(t)
	store := storage.NewBlobStorageClientFromBucket(memblob.OpenBucket(nil), "mem://")
	defer store.Close()

	observations := []models.Observation{
		{Timestamp: time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2014, 1, 2, 12, 0, 0, 0, time.UTC)},
	}
	runner := NewRunner(NewWorker(newFetcher(hv), store, true), RunnerOptions{Workers: 3})

	first, err := runner.Run(ctx, observations)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	firstFiles, _ := store.ListFiles(ctx)
	requestsAfterFirst := hv.Requests()

	second, err := runner.Run(ctx, observations)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	secondFiles, _ := store.ListFiles(ctx)

	if first.Downloaded() != 10 {
		t.Errorf("Expected 10 downloads on first run, got %d", first.Downloaded())
	}
	if second.Counts[StatusSkipped] != 10 {
		t.Errorf("Expected 10 skips on second run, got %d", second.Counts[StatusSkipped])
	}
	if hv.Requests() != requestsAfterFirst {
		t.Errorf("Second run made %d network requests", hv.Requests()-requestsAfterFirst)
	}
	if !reflect.DeepEqual(firstFiles, secondFiles) {
		t.Errorf("Artifact sets differ: %v vs %v", firstFiles, secondFiles)
	}
}

func TestRunRecordsFailures(t *testing.T) {
	ctx := context.Background()
	hv := mocks.NewHelioviewer(t)
	hv.SetNoImage(13)
	hv.SetBrokenDownload(14)
	store := newLocalStore(t)
	manifestPath := filepath.Join(t.TempDir(), "nested", "failures.json")

	runner := NewRunner(NewWorker(newFetcher(hv), store, true), RunnerOptions{
		Workers:      2,
		ManifestPath: manifestPath,
	})

	summary, err := runner.Run(ctx, newYearObservation)
	if err != nil {
		t.Fatalf("Run should not fail on task errors: %v", err)
	}

	if summary.Downloaded() != 3 {
		t.Errorf("Expected 3 downloads, got %d", summary.Downloaded())
	}
	if summary.Counts[StatusNoImage] != 1 {
		t.Errorf("Expected 1 no_image, got %d", summary.Counts[StatusNoImage])
	}
	if summary.Counts[StatusDownloadFailed] != 1 {
		t.Errorf("Expected 1 download_failed, got %d", summary.Counts[StatusDownloadFailed])
	}

	for _, name := range []string{"20140101_120000_AIA_304.jpg", "20140101_120000_AIA_335.jpg"} {
		if exists, _ := store.FileExists(ctx, name); exists {
			t.Errorf("Expected no artifact %s", name)
		}
	}

	manifest, err := ReadManifest(manifestPath)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}
	if len(manifest.Failures) != 2 {
		t.Fatalf("Expected 2 manifest entries, got %d", len(manifest.Failures))
	}
	byWavelength := map[int]FailureRecord{}
	for _, f := range manifest.Failures {
		byWavelength[f.Wavelength] = f
	}
	if byWavelength[304].Status != StatusNoImage || byWavelength[304].SourceID != 13 {
		t.Errorf("Unexpected 304 record: %+v", byWavelength[304])
	}
	if byWavelength[335].Status != StatusDownloadFailed || byWavelength[335].ImageID != "14000" {
		t.Errorf("Unexpected 335 record: %+v", byWavelength[335])
	}
	if byWavelength[335].Timestamp != "2014-01-01T12:00:00Z" {
		t.Errorf("Unexpected timestamp %s", byWavelength[335].Timestamp)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	hv := mocks.NewHelioviewer(t)
	store := newLocalStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(NewWorker(newFetcher(hv), store, true), RunnerOptions{Workers: 2})
	summary, err := runner.Run(ctx, newYearObservation)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !summary.Interrupted {
		t.Error("Expected run to be marked interrupted")
	}
	if summary.Processed != 0 {
		t.Errorf("Expected no processed tasks, got %d", summary.Processed)
	}
	if hv.Requests() != 0 {
		t.Errorf("Expected no requests, got %d", hv.Requests())
	}
}

func TestRunManifestWriteFailure(t *testing.T) {
	hv := mocks.NewHelioviewer(t)
	store := newLocalStore(t)

	// A regular file where the manifest directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create blocker: %v", err)
	}

	runner := NewRunner(NewWorker(newFetcher(hv), store, true), RunnerOptions{
		Workers:      1,
		ManifestPath: filepath.Join(blocker, "failures.json"),
	})

	summary, err := runner.Run(context.Background(), newYearObservation)
	if err == nil {
		t.Fatal("Expected manifest write error")
	}
	if summary == nil || summary.Downloaded() != 5 {
		t.Error("Expected summary to be returned alongside the error")
	}
}

func TestRunEmptyInput(t *testing.T) {
	hv := mocks.NewHelioviewer(t)
	runner := NewRunner(NewWorker(newFetcher(hv), newLocalStore(t), true), RunnerOptions{
		Workers:  4,
		Progress: true,
	})

	summary, err := runner.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Total != 0 || summary.Interrupted {
		t.Errorf("Unexpected summary for empty input: %+v", summary)
	}
}
