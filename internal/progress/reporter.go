// Package progress prints periodic task-level progress for a harvest run.
package progress

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// TotalTasks is the number of tasks submitted.
	TotalTasks int

	// Workers is the pool width (for display).
	Workers int

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 2s
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information.
type Reporter struct {
	opts Options

	mu        sync.Mutex
	done      atomic.Int64
	outcomes  map[string]int
	startTime time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = 2 * time.Second
	}

	return &Reporter{
		opts:     opts,
		outcomes: make(map[string]int),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start prints the header and begins periodic updates.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.startTime = time.Now()
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "[harvest] Tasks: %d | Workers: %d\n", r.opts.TotalTasks, r.opts.Workers)

	go r.updateLoop()
}

// Stop stops periodic updates and prints the final status. Safe to call twice.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// TaskFinished records one completed task and its outcome label.
func (r *Reporter) TaskFinished(outcome string) {
	r.done.Add(1)

	r.mu.Lock()
	r.outcomes[outcome]++
	r.mu.Unlock()
}

// Done returns the number of finished tasks.
func (r *Reporter) Done() int {
	return int(r.done.Load())
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	done := r.Done()
	elapsed := time.Since(r.startTime)

	var percent float64
	if r.opts.TotalTasks > 0 {
		percent = float64(done) / float64(r.opts.TotalTasks) * 100
	}

	rate := float64(done) / elapsed.Seconds()
	eta := "calculating..."
	if rate > 0 {
		remaining := float64(r.opts.TotalTasks-done) / rate
		eta = formatDuration(time.Duration(remaining * float64(time.Second)))
	}

	fmt.Fprintf(r.opts.Output, "[harvest] Progress: %.1f%% | %d / %d | %.1f tasks/s | ETA: %s | %s\n",
		percent, done, r.opts.TotalTasks, rate, eta, r.outcomeSummary())
}

func (r *Reporter) printFinalStatus() {
	done := r.Done()
	duration := time.Since(r.startTime)

	fmt.Fprintf(r.opts.Output, "[harvest] Finished %d / %d tasks in %s | %s\n",
		done, r.opts.TotalTasks, formatDuration(duration), r.outcomeSummary())
}

// outcomeSummary renders outcome counts sorted by label, e.g. "downloaded=3 skipped=2"
func (r *Reporter) outcomeSummary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.outcomes) == 0 {
		return "no results yet"
	}

	labels := make([]string, 0, len(r.outcomes))
	for label := range r.outcomes {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s=%d", label, r.outcomes[label]))
	}
	return strings.Join(parts, " ")
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
