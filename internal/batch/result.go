package batch

import (
	"time"

	"github.com/bstardust/exif-analyzer/internal/metadata"
)

// Skip is a file that produced no record, with the reason.
type Skip struct {
	Path string
	Err  error
}

// Result is the outcome of one run. Records and Skipped follow scan order,
// whatever order the workers finished in.
type Result struct {
	JobID    string
	Records  []metadata.Record
	Skipped  []Skip
	Total    int
	Canceled bool
	Duration time.Duration
}

func (r *Result) RecordCount() int  { return len(r.Records) }
func (r *Result) SkippedCount() int { return len(r.Skipped) }

// Summary condenses the result into the finish event.
func (r *Result) Summary() Summary {
	return Summary{
		JobID:    r.JobID,
		Records:  len(r.Records),
		Skipped:  len(r.Skipped),
		Total:    r.Total,
		Canceled: r.Canceled,
		Duration: r.Duration,
	}
}
