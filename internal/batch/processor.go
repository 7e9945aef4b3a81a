// Package batch runs metadata extraction over many files concurrently.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/bstardust/exif-analyzer/internal/exif"
	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/bstardust/exif-analyzer/internal/metadata"
	"github.com/bstardust/exif-analyzer/internal/worker"
	"github.com/bstardust/exif-analyzer/pkg/common"
	"github.com/sourcegraph/conc/panics"
)

var (
	// ErrBatchActive is returned by Run while another run of the same
	// Processor is in progress.
	ErrBatchActive = errors.New("a batch is already running")

	// ErrCanceled is the skip reason of files that never started because the
	// run was canceled.
	ErrCanceled = errors.New("batch canceled")

	// ErrNotRegular is the skip reason of paths that are not regular files.
	ErrNotRegular = errors.New("not a regular file")
)

// Decoder reads the tag table of one file.
type Decoder interface {
	Decode(r io.Reader) exif.Table
}

// RecordBuilder turns a tag table into a record.
type RecordBuilder interface {
	Build(path string, t exif.Table) metadata.Record
}

// File is what an Opener returns. *os.File satisfies it.
type File interface {
	io.ReadCloser
	Stat() (os.FileInfo, error)
}

// Opener opens a file for reading.
type Opener func(path string) (File, error)

func openFile(path string) (File, error) {
	return os.Open(path)
}

// DefaultConcurrency oversubscribes the CPUs since most time is spent
// waiting on disk.
func DefaultConcurrency() int {
	return 2 * runtime.NumCPU()
}

// Processor extracts records for a job. One Processor runs one batch at a
// time.
type Processor struct {
	decoder     Decoder
	builder     RecordBuilder
	concurrency int
	observer    Observer
	open        Opener

	active atomic.Bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency sets the number of files processed at once.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		p.concurrency = n
	}
}

// WithObserver sets the receiver of progress and finish events.
func WithObserver(o Observer) Option {
	return func(p *Processor) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithOpener replaces os.Open.
func WithOpener(open Opener) Option {
	return func(p *Processor) {
		if open != nil {
			p.open = open
		}
	}
}

// NewProcessor creates a new batch processor
func NewProcessor(decoder Decoder, builder RecordBuilder, opts ...Option) (*Processor, error) {
	p := &Processor{
		decoder:     decoder,
		builder:     builder,
		concurrency: DefaultConcurrency(),
		observer:    nopObserver{},
		open:        openFile,
	}
	for _, opt := range opts {
		opt(p)
	}

	if decoder == nil {
		return nil, common.NewConfigError("decoder", "decoder is required")
	}
	if builder == nil {
		return nil, common.NewConfigError("builder", "record builder is required")
	}
	if p.concurrency < 1 {
		return nil, common.NewConfigError("concurrency", fmt.Sprintf("must be positive, got %d", p.concurrency))
	}
	return p, nil
}

// Active reports whether a run is in progress.
func (p *Processor) Active() bool {
	return p.active.Load()
}

// RunPaths processes an explicit list of paths as one job.
func (p *Processor) RunPaths(ctx context.Context, paths []string) (*Result, error) {
	return p.Run(ctx, newPathJob(paths))
}

type outcome struct {
	index  int
	path   string
	record metadata.Record
	err    error
}

// Run processes every discovered path of job. Per-file failures become
// skips and never stop the batch. When ctx is canceled, files already
// started finish and the rest are skipped with ErrCanceled; the partial
// result is returned without error.
func (p *Processor) Run(ctx context.Context, job *Job) (*Result, error) {
	if job == nil {
		return nil, common.NewConfigError("job", "job is required")
	}
	if !p.active.CompareAndSwap(false, true) {
		return nil, ErrBatchActive
	}
	defer p.active.Store(false)

	start := time.Now()
	paths := job.paths
	total := len(paths)
	job.total.Store(int64(total))
	job.processed.Store(0)

	logger.Debug("Starting batch %s with %d files", job.id, total)

	if total == 0 {
		p.observer.OnProgress(Progress{JobID: job.id})
	}

	outcomes := make(chan outcome, p.concurrency)
	done := make(chan struct{})

	var records []outcome
	var skipped []outcome
	go func() {
		defer close(done)
		completed := 0
		for o := range outcomes {
			completed++
			job.processed.Store(int64(completed))
			if o.err != nil {
				skipped = append(skipped, o)
			} else {
				records = append(records, o)
			}
			p.observer.OnProgress(Progress{
				JobID:     job.id,
				Completed: completed,
				Total:     total,
				Path:      o.path,
				Err:       o.err,
			})
		}
	}()

	canceled := false
	pool := worker.NewPool(p.concurrency)
	for i, path := range paths {
		err := pool.Submit(ctx, func() {
			outcomes <- p.process(i, path)
		})
		if err != nil {
			canceled = true
			logger.Debug("Batch %s canceled with %d files not started", job.id, total-i)
			for j := i; j < total; j++ {
				outcomes <- outcome{index: j, path: paths[j], err: ErrCanceled}
			}
			break
		}
	}

	pool.Wait()
	close(outcomes)
	<-done

	sort.Slice(records, func(a, b int) bool { return records[a].index < records[b].index })
	sort.Slice(skipped, func(a, b int) bool { return skipped[a].index < skipped[b].index })

	result := &Result{
		JobID:    job.id,
		Total:    total,
		Canceled: canceled,
		Duration: time.Since(start),
		Records:  make([]metadata.Record, 0, len(records)),
		Skipped:  make([]Skip, 0, len(skipped)),
	}
	for _, o := range records {
		result.Records = append(result.Records, o.record)
	}
	for _, o := range skipped {
		result.Skipped = append(result.Skipped, Skip{Path: o.path, Err: o.err})
	}

	p.observer.OnFinish(result.Summary())
	return result, nil
}

// process never panics: a panic while handling one file becomes its skip
// reason.
func (p *Processor) process(index int, path string) outcome {
	o := outcome{index: index, path: path}

	var pc panics.Catcher
	pc.Try(func() {
		o.record, o.err = p.processFile(path)
	})
	if rec := pc.Recovered(); rec != nil {
		o.err = fmt.Errorf("panic while processing file: %w", rec.AsError())
	}

	if o.err != nil {
		logger.Warn("Skipping %s: %v", path, o.err)
	}
	return o
}

func (p *Processor) processFile(path string) (metadata.Record, error) {
	f, err := p.open(path)
	if err != nil {
		return metadata.Record{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return metadata.Record{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return metadata.Record{}, fmt.Errorf("%w: %s", ErrNotRegular, info.Mode().Type())
	}

	table := p.decoder.Decode(bufio.NewReader(f))
	if err := table.Err(); err != nil {
		logger.Debug("No metadata in %s: %v", path, err)
	}

	return p.builder.Build(path, table), nil
}
