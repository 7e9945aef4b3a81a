package metadata

import (
	"maps"
	"path/filepath"
	"time"

	"github.com/bstardust/exif-analyzer/internal/geo"
	"github.com/dustin/go-humanize"
)

// TagDateLayout is the layout of EXIF date strings.
const TagDateLayout = "2006:01:02 15:04:05"

// DisplayDateLayout renders capture dates as "30.05.2021 18:45".
const DisplayDateLayout = "02.01.2006 15:04"

// CaptureDate is the date a photo was taken. Raw holds the tag text as read;
// Time is only meaningful when Parsed is true.
type CaptureDate struct {
	Raw    string
	Time   time.Time
	Parsed bool
}

// Format renders the date with layout, falling back to the raw tag text.
func (d CaptureDate) Format(layout string) string {
	if !d.Parsed {
		return d.Raw
	}
	return d.Time.Format(layout)
}

func (d CaptureDate) String() string {
	return d.Format(DisplayDateLayout)
}

// Record is the metadata derived from one image file. Records are built
// once and never change.
type Record struct {
	path      string
	size      uint64
	date      *CaptureDate
	camera    string
	gps       *geo.Coordinates
	technical map[string]string
}

// Path returns the file path as discovered by the scanner.
func (r Record) Path() string { return r.path }

// Filename returns the base name of the path.
func (r Record) Filename() string { return filepath.Base(r.path) }

// SizeBytes returns the file size, or 0 if it could not be read.
func (r Record) SizeBytes() uint64 { return r.size }

// HumanSize formats the file size, e.g. "1.5 MB".
func (r Record) HumanSize() string { return humanize.Bytes(r.size) }

// Date returns the capture date.
func (r Record) Date() (CaptureDate, bool) {
	if r.date == nil {
		return CaptureDate{}, false
	}
	return *r.date, true
}

// Camera returns "make model".
func (r Record) Camera() (string, bool) {
	return r.camera, r.camera != ""
}

// GPS returns the resolved position. A position of 0,0 is present.
func (r Record) GPS() (geo.Coordinates, bool) {
	if r.gps == nil {
		return geo.Coordinates{}, false
	}
	return *r.gps, true
}

// Technical returns a copy of the technical tags keyed by bare tag name.
func (r Record) Technical() map[string]string {
	if len(r.technical) == 0 {
		return map[string]string{}
	}
	return maps.Clone(r.technical)
}

// HasMetadata reports whether any optional field is present.
func (r Record) HasMetadata() bool {
	return r.date != nil || r.camera != "" || r.gps != nil || len(r.technical) > 0
}
