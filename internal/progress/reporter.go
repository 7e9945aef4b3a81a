// internal/progress/reporter.go
package progress

import (
	"sync"
	"time"

	"github.com/bstardust/exif-analyzer/internal/batch"
	"github.com/bstardust/exif-analyzer/internal/logger"
)

// Reporter logs batch progress. It implements batch.Observer and can be
// reused for consecutive runs.
type Reporter struct {
	mu             sync.Mutex
	running        bool
	total          int
	completed      int
	skipped        int
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
	now            func() time.Time
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
		now:            time.Now,
	}
}

// WithInterval sets the minimum time between progress lines.
func (r *Reporter) WithInterval(d time.Duration) *Reporter {
	r.updateInterval = d
	return r
}

// OnProgress records one finished file. The first event of a run starts
// the clock.
func (r *Reporter) OnProgress(p batch.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		r.running = true
		r.completed = 0
		r.skipped = 0
		r.startTime = r.now()
		r.lastUpdateTime = r.startTime
		logger.Info("Starting analysis of %d files", p.Total)
	}
	r.total = p.Total
	if p.Path == "" {
		return
	}

	if p.Err != nil {
		r.skipped++
	}
	r.completed = p.Completed
	r.updateProgress(p.Completed == p.Total)
}

// OnFinish logs the final summary
func (r *Reporter) OnFinish(s batch.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "Analysis complete"
	if s.Canceled {
		status = "Analysis canceled"
	}
	logger.Info("%s: %d/%d files processed, %d skipped in %s",
		status, s.Records, s.Total, s.Skipped, s.Duration.Round(time.Millisecond))

	r.running = false
}

// updateProgress logs a progress line at most once per interval
func (r *Reporter) updateProgress(force bool) {
	now := r.now()
	if !force && now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	duration := now.Sub(r.startTime)

	if r.completed == 0 || r.total == 0 {
		return
	}

	percentage := float64(r.completed) / float64(r.total) * 100

	// Calculate estimated time remaining
	timePerFile := duration / time.Duration(r.completed)
	remaining := timePerFile * time.Duration(r.total-r.completed)
	eta := remaining.Round(time.Second).String()

	logger.Info("Progress: %.1f%% (%d/%d, %d skipped) ETA: %s",
		percentage, r.completed, r.total, r.skipped, eta)
}
