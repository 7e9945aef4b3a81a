package batch

import (
	"fmt"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/bstardust/exif-analyzer/internal/fileinfo"
	"github.com/bstardust/exif-analyzer/pkg/common"
	"github.com/google/uuid"
)

// Scanner discovers the files of a job.
type Scanner interface {
	Scan(root string, recursive bool, exts fileinfo.ExtensionSet) (iter.Seq[string], error)
}

// Job is one analysis run: where to look, what was found and how far
// processing got.
type Job struct {
	id        string
	root      string
	recursive bool
	exts      fileinfo.ExtensionSet
	paths     []string

	processed atomic.Int64
	total     atomic.Int64
}

// Snapshot is a point-in-time view of a job's counters.
type Snapshot struct {
	ID        string
	Processed int
	Total     int
}

// NewJob validates the settings of a run.
func NewJob(root string, recursive bool, exts fileinfo.ExtensionSet) (*Job, error) {
	if strings.TrimSpace(root) == "" {
		return nil, common.NewConfigError("root", "scan root is required")
	}
	if len(exts) == 0 {
		return nil, common.NewConfigError("extensions", "at least one extension must be selected")
	}

	return &Job{
		id:        uuid.NewString(),
		root:      root,
		recursive: recursive,
		exts:      exts,
	}, nil
}

// newPathJob wraps an explicit list of paths.
func newPathJob(paths []string) *Job {
	j := &Job{id: uuid.NewString()}
	j.paths = append([]string(nil), paths...)
	j.total.Store(int64(len(j.paths)))
	return j
}

// Discover runs the scanner and stores the paths in scan order. Calling it
// again replaces the previous list.
func (j *Job) Discover(s Scanner) error {
	seq, err := s.Scan(j.root, j.recursive, j.exts)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", j.root, err)
	}

	var paths []string
	for p := range seq {
		paths = append(paths, p)
	}

	j.paths = paths
	j.processed.Store(0)
	j.total.Store(int64(len(paths)))
	return nil
}

func (j *Job) ID() string                        { return j.id }
func (j *Job) Root() string                      { return j.root }
func (j *Job) Recursive() bool                   { return j.recursive }
func (j *Job) Extensions() fileinfo.ExtensionSet { return j.exts }

// Paths returns a copy of the discovered paths.
func (j *Job) Paths() []string {
	return append([]string(nil), j.paths...)
}

// Snapshot reads the live counters. It is safe to call while the job runs.
func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		ID:        j.id,
		Processed: int(j.processed.Load()),
		Total:     int(j.total.Load()),
	}
}
