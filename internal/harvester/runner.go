package harvester

import (
	"context"
	"fmt"
	"io"
	"time"

	"solarharvest/internal/config"
	"solarharvest/internal/logger"
	"solarharvest/internal/models"
	"solarharvest/internal/pool"
	"solarharvest/internal/progress"
	"solarharvest/internal/tasks"

	"github.com/google/uuid"
)

// RunnerOptions configures a Runner
type RunnerOptions struct {
	Workers  int
	Channels []models.Channel

	// ManifestPath is where failed tasks are written. Empty disables the manifest.
	ManifestPath string

	Progress         bool
	ProgressInterval time.Duration
	ProgressOutput   io.Writer
}

// OptionsFromConfig maps the loaded configuration onto runner options
func OptionsFromConfig(cfg *config.Config) RunnerOptions {
	return RunnerOptions{
		Workers:          cfg.Workers,
		Channels:         cfg.Channels,
		ManifestPath:     cfg.FailureManifest,
		Progress:         cfg.Progress,
		ProgressInterval: cfg.ProgressInterval,
	}
}

// Summary describes a finished run
type Summary struct {
	RunID       string
	Total       int
	Processed   int
	Counts      map[Status]int
	Failures    []Result
	Interrupted bool
	Duration    time.Duration
}

// Downloaded returns the number of newly stored artifacts
func (s *Summary) Downloaded() int {
	return s.Counts[StatusDownloaded]
}

// Runner expands observations into tasks and runs them through a bounded pool
type Runner struct {
	worker *Worker
	opts   RunnerOptions
	log    *logger.Logger
}

// NewRunner creates a runner around worker
func NewRunner(worker *Worker, opts RunnerOptions) *Runner {
	if len(opts.Channels) == 0 {
		opts.Channels = models.DefaultChannels()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		worker: worker,
		opts:   opts,
		log:    logger.Component("runner"),
	}
}

// Run processes every (observation, channel) task. Task failures are recorded in
// the summary and never returned; the only error is a failed manifest write.
func (r *Runner) Run(ctx context.Context, observations []models.Observation) (*Summary, error) {
	startedAt := time.Now()
	taskList := tasks.Expand(observations, r.opts.Channels)

	summary := &Summary{
		RunID:  uuid.NewString(),
		Total:  len(taskList),
		Counts: make(map[Status]int),
	}
	runLog := r.log.With(logger.Fields{"run_id": summary.RunID})

	runLog.Info("Starting harvest", logger.Fields{
		"observations": len(observations),
		"tasks":        summary.Total,
		"workers":      r.opts.Workers,
	})

	var reporter *progress.Reporter
	if r.opts.Progress && summary.Total > 0 {
		reporter = progress.NewReporter(progress.Options{
			TotalTasks:     summary.Total,
			Workers:        r.opts.Workers,
			Output:         r.opts.ProgressOutput,
			UpdateInterval: r.opts.ProgressInterval,
		})
		reporter.Start()
	}

	p := pool.NewWorkerPool[models.Task, Result](r.opts.Workers)
	go func() {
		for _, task := range taskList {
			p.Submit(ctx, task, r.worker.Process)
		}
		p.Close()
	}()

	for res := range p.Results() {
		summary.Processed++
		summary.Counts[res.Status]++
		if res.Status.Failed() {
			summary.Failures = append(summary.Failures, res)
		}
		r.logResult(runLog, res)
		if reporter != nil {
			reporter.TaskFinished(string(res.Status))
		}
	}

	if reporter != nil {
		reporter.Stop()
	}

	summary.Interrupted = ctx.Err() != nil || summary.Processed < summary.Total
	summary.Duration = time.Since(startedAt)

	fields := logger.Fields{
		"total":       summary.Total,
		"processed":   summary.Processed,
		"failed":      len(summary.Failures),
		"interrupted": summary.Interrupted,
		"duration":    summary.Duration.Round(time.Millisecond).String(),
	}
	for status, n := range summary.Counts {
		fields[string(status)] = n
	}
	runLog.Info("Harvest finished", fields)

	if r.opts.ManifestPath == "" {
		return summary, nil
	}

	manifest := &Manifest{
		RunID:       summary.RunID,
		StartedAt:   startedAt.UTC(),
		FinishedAt:  time.Now().UTC(),
		Total:       summary.Total,
		Counts:      summary.Counts,
		Interrupted: summary.Interrupted,
	}
	for _, failure := range summary.Failures {
		manifest.Failures = append(manifest.Failures, newFailureRecord(failure))
	}
	if err := WriteManifest(r.opts.ManifestPath, manifest); err != nil {
		return summary, fmt.Errorf("run %s: %w", summary.RunID, err)
	}
	runLog.Info("Failure manifest written", logger.Fields{
		"path":     r.opts.ManifestPath,
		"failures": len(manifest.Failures),
	})

	return summary, nil
}

func (r *Runner) logResult(log *logger.Logger, res Result) {
	fields := logger.Fields{
		"task": res.Task.String(),
		"name": res.Name,
	}

	switch res.Status {
	case StatusDownloaded:
		fields["image_id"] = res.ImageID
		fields["bytes"] = res.Bytes
		log.Debug("Image downloaded", fields)
	case StatusSkipped:
		log.Debug("Artifact exists, skipping", fields)
	case StatusNoImage:
		log.Info("no image", fields)
	default:
		fields["status"] = string(res.Status)
		if res.ImageID != "" {
			fields["image_id"] = res.ImageID
		}
		log.Error("Task failed", res.Err, fields)
	}
}
