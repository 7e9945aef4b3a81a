package metadata

import (
	"os"
	"strings"
	"time"

	"github.com/bstardust/exif-analyzer/internal/exif"
	"github.com/bstardust/exif-analyzer/internal/geo"
	"github.com/bstardust/exif-analyzer/internal/logger"
)

// DefaultTechnicalFields lists the tags copied into Record.Technical.
var DefaultTechnicalFields = []string{
	"Image Software",
	"EXIF ISOSpeedRatings",
	"EXIF ExposureTime",
	"EXIF FNumber",
	"EXIF FocalLength",
	"EXIF Flash",
}

// StatFunc reports file information. os.Stat is used by default.
type StatFunc func(path string) (os.FileInfo, error)

// Builder turns decoded tag tables into records.
type Builder struct {
	technical []string
	stat      StatFunc
	location  *time.Location
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithTechnicalFields replaces the technical tag allow-list. Names are
// qualified, e.g. "EXIF FNumber".
func WithTechnicalFields(names ...string) BuilderOption {
	return func(b *Builder) {
		b.technical = append([]string(nil), names...)
	}
}

// WithStat sets the function used to read file sizes.
func WithStat(stat StatFunc) BuilderOption {
	return func(b *Builder) {
		if stat != nil {
			b.stat = stat
		}
	}
}

// WithLocation sets the zone EXIF dates are interpreted in. EXIF dates carry
// no zone of their own; the default is UTC.
func WithLocation(loc *time.Location) BuilderOption {
	return func(b *Builder) {
		if loc != nil {
			b.location = loc
		}
	}
}

// NewBuilder creates a new record builder
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		technical: DefaultTechnicalFields,
		stat:      os.Stat,
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build derives a Record from a tag table. It never fails: anything that
// cannot be derived is left absent.
func (b *Builder) Build(path string, t exif.Table) Record {
	r := Record{
		path:   path,
		size:   b.fileSize(path),
		date:   b.captureDate(t),
		camera: camera(t),
	}

	if c, ok := geo.ResolveCoordinates(t); ok {
		r.gps = &c
	}

	for _, name := range b.technical {
		v, ok := t.Lookup(name)
		if !ok {
			continue
		}
		if r.technical == nil {
			r.technical = make(map[string]string, len(b.technical))
		}
		id, _ := exif.ParseTag(name)
		r.technical[exif.StripNamespace(name)] = exif.Describe(id, v)
	}

	return r
}

func (b *Builder) fileSize(path string) uint64 {
	info, err := b.stat(path)
	if err != nil {
		logger.Debug("Failed to stat %s: %v", path, err)
		return 0
	}
	if info.Size() < 0 {
		return 0
	}
	return uint64(info.Size())
}

func (b *Builder) captureDate(t exif.Table) *CaptureDate {
	raw := t.Text(exif.TagDateTimeOriginal)
	if raw == "" {
		raw = t.Text(exif.TagDateTime)
	}
	if raw == "" {
		return nil
	}

	d := &CaptureDate{Raw: raw}
	if ts, err := time.ParseInLocation(TagDateLayout, raw, b.location); err == nil {
		d.Time = ts
		d.Parsed = true
	}
	return d
}

func camera(t exif.Table) string {
	maker := t.Text(exif.TagMake)
	model := t.Text(exif.TagModel)
	return strings.TrimSpace(maker + " " + model)
}
