// Package report renders batch results into exportable files.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bstardust/exif-analyzer/internal/batch"
	"github.com/bstardust/exif-analyzer/internal/geo"
	"github.com/bstardust/exif-analyzer/internal/metadata"
	"github.com/bstardust/exif-analyzer/pkg/common"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// DefaultMapURL is the prefix map links are built from.
const DefaultMapURL = "https://maps.example/?q="

// Sink writes a report in one format.
type Sink interface {
	Name() string
	Extension() string
	Write(w io.Writer, r Report) error
}

// Report is the input of every sink.
type Report struct {
	Records     []metadata.Record
	Summary     batch.Summary
	GeneratedAt time.Time
	MapURL      string
	DateLayout  string
}

// Option configures a Report.
type Option func(*Report)

// WithMapURL sets the map link prefix.
func WithMapURL(base string) Option {
	return func(r *Report) {
		if base != "" {
			r.MapURL = base
		}
	}
}

// WithDateLayout sets the time layout of the date column.
func WithDateLayout(layout string) Option {
	return func(r *Report) {
		if layout != "" {
			r.DateLayout = layout
		}
	}
}

// WithGeneratedAt overrides the generation time.
func WithGeneratedAt(t time.Time) Option {
	return func(r *Report) {
		r.GeneratedAt = t
	}
}

// New builds a report from a batch result. Records are sorted by path.
func New(res *batch.Result, opts ...Option) Report {
	r := Report{
		GeneratedAt: time.Now(),
		MapURL:      DefaultMapURL,
		DateLayout:  metadata.DisplayDateLayout,
	}
	if res != nil {
		r.Records = append([]metadata.Record(nil), res.Records...)
		r.Summary = res.Summary()
	}
	for _, opt := range opts {
		opt(&r)
	}

	sort.SliceStable(r.Records, func(i, j int) bool {
		return r.Records[i].Path() < r.Records[j].Path()
	})
	return r
}

// Row is a record flattened to display strings. Absent values are empty.
type Row struct {
	Filename    string
	Path        string
	Size        string
	Date        string
	Camera      string
	Latitude    string
	Longitude   string
	Coordinates string
	MapLink     string
	HasGPS      bool
}

// Rows flattens the records in report order.
func (r Report) Rows() []Row {
	rows := make([]Row, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, r.row(rec))
	}
	return rows
}

func (r Report) row(rec metadata.Record) Row {
	row := Row{
		Filename: rec.Filename(),
		Path:     rec.Path(),
		Size:     rec.HumanSize(),
	}
	if d, ok := rec.Date(); ok {
		row.Date = d.Format(r.DateLayout)
	}
	if c, ok := rec.Camera(); ok {
		row.Camera = c
	}
	if c, ok := rec.GPS(); ok {
		row.HasGPS = true
		row.Latitude = geo.FormatDegrees(c.Latitude)
		row.Longitude = geo.FormatDegrees(c.Longitude)
		row.Coordinates = c.String()
		row.MapLink = c.MapURL(r.MapURL)
	}
	return row
}

var sinks = []Sink{CSV{}, HTML{}, JSON{}}

// Sinks returns the available sinks.
func Sinks() []Sink {
	return append([]Sink(nil), sinks...)
}

// SinkFor picks a sink by file extension, ignoring case.
func SinkFor(path string) (Sink, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range sinks {
		if s.Extension() == ext {
			return s, nil
		}
	}
	return nil, common.NewConfigError("report", fmt.Sprintf("unsupported report extension %q", ext))
}

// Export writes r to path on fs, choosing the sink by extension.
func Export(fs afero.Fs, path string, r Report) (err error) {
	sink, err := SinkFor(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := sink.Write(f, r); err != nil {
		return fmt.Errorf("failed to write %s report: %w", sink.Name(), err)
	}
	return nil
}

// ExportAll writes r to every path. A failing target does not stop the
// others; all errors are combined.
func ExportAll(fs afero.Fs, paths []string, r Report) error {
	var err error
	for _, p := range paths {
		if e := Export(fs, p, r); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", p, e))
		}
	}
	return err
}
