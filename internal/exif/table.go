package exif

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Namespace groups tags the way the metadata segment does.
type Namespace string

const (
	NamespaceImage     Namespace = "Image"
	NamespaceEXIF      Namespace = "EXIF"
	NamespaceGPS       Namespace = "GPS"
	NamespaceThumbnail Namespace = "Thumbnail"
	NamespaceInterop   Namespace = "Interoperability"
)

// TagID identifies a tag the analyzer reads by name. Tags outside this set
// are still kept in a Table, keyed by their qualified name.
type TagID int

const (
	TagUnknown TagID = iota
	TagMake
	TagModel
	TagSoftware
	TagDateTime
	TagDateTimeOriginal
	TagISOSpeedRatings
	TagExposureTime
	TagFNumber
	TagFocalLength
	TagFlash
	TagGPSLatitudeRef
	TagGPSLatitude
	TagGPSLongitudeRef
	TagGPSLongitude
	TagGPSAltitudeRef
	TagGPSAltitude
)

type tagDef struct {
	ns    Namespace
	field exif.FieldName
}

var tagDefs = [...]tagDef{
	TagMake:             {NamespaceImage, exif.Make},
	TagModel:            {NamespaceImage, exif.Model},
	TagSoftware:         {NamespaceImage, exif.Software},
	TagDateTime:         {NamespaceImage, exif.DateTime},
	TagDateTimeOriginal: {NamespaceEXIF, exif.DateTimeOriginal},
	TagISOSpeedRatings:  {NamespaceEXIF, exif.ISOSpeedRatings},
	TagExposureTime:     {NamespaceEXIF, exif.ExposureTime},
	TagFNumber:          {NamespaceEXIF, exif.FNumber},
	TagFocalLength:      {NamespaceEXIF, exif.FocalLength},
	TagFlash:            {NamespaceEXIF, exif.Flash},
	TagGPSLatitudeRef:   {NamespaceGPS, exif.GPSLatitudeRef},
	TagGPSLatitude:      {NamespaceGPS, exif.GPSLatitude},
	TagGPSLongitudeRef:  {NamespaceGPS, exif.GPSLongitudeRef},
	TagGPSLongitude:     {NamespaceGPS, exif.GPSLongitude},
	TagGPSAltitudeRef:   {NamespaceGPS, exif.GPSAltitudeRef},
	TagGPSAltitude:      {NamespaceGPS, exif.GPSAltitude},
}

var (
	byField     = map[exif.FieldName]TagID{}
	byQualified = map[string]TagID{}
)

func init() {
	for id := TagMake; int(id) < len(tagDefs); id++ {
		byField[tagDefs[id].field] = id
		byQualified[id.Name()] = id
	}
}

// Namespace returns the group the tag belongs to.
func (id TagID) Namespace() Namespace {
	if id <= TagUnknown || int(id) >= len(tagDefs) {
		return ""
	}
	return tagDefs[id].ns
}

// Field returns the bare tag name, e.g. "DateTimeOriginal".
func (id TagID) Field() string {
	if id <= TagUnknown || int(id) >= len(tagDefs) {
		return ""
	}
	return string(tagDefs[id].field)
}

// Name returns the qualified name, e.g. "EXIF DateTimeOriginal".
func (id TagID) Name() string {
	if id <= TagUnknown || int(id) >= len(tagDefs) {
		return "Unknown"
	}
	return QualifiedName(tagDefs[id].ns, string(tagDefs[id].field))
}

func (id TagID) String() string {
	return id.Name()
}

// ParseTag resolves a qualified name to a TagID.
func ParseTag(name string) (TagID, bool) {
	id, ok := byQualified[strings.TrimSpace(name)]
	return id, ok
}

// QualifiedName joins a namespace and a field name.
func QualifiedName(ns Namespace, field string) string {
	return string(ns) + " " + field
}

// StripNamespace turns "EXIF FNumber" into "FNumber".
func StripNamespace(name string) string {
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Kind is the type of a decoded tag value.
type Kind int

const (
	KindASCII Kind = iota + 1
	KindRational
	KindSignedRational
	KindInteger
	KindUndefined
)

// Rational is a numerator/denominator pair as stored in the segment.
type Rational struct {
	Num int64
	Den int64
}

// Float64 returns the value of r; ok is false for a zero denominator.
func (r Rational) Float64() (f float64, ok bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

// String renders r in lowest terms, e.g. 28/10 as "14/5" and 50/1 as "50".
func (r Rational) String() string {
	num, den := r.Num, r.Den
	if den < 0 {
		num, den = -num, -den
	}
	if den != 0 {
		if g := gcd(num, den); g > 1 {
			num, den = num/g, den/g
		}
	}
	if den == 1 {
		return strconv.FormatInt(num, 10)
	}
	return strconv.FormatInt(num, 10) + "/" + strconv.FormatInt(den, 10)
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Value is one decoded tag.
type Value struct {
	Kind      Kind
	Text      string
	Rationals []Rational
	Ints      []int64
}

// Triple returns the first three rationals, as used by GPS coordinates.
func (v Value) Triple() ([3]Rational, bool) {
	var out [3]Rational
	if v.Kind != KindRational && v.Kind != KindSignedRational {
		return out, false
	}
	if len(v.Rationals) < 3 {
		return out, false
	}
	copy(out[:], v.Rationals[:3])
	return out, true
}

func (v Value) String() string {
	switch v.Kind {
	case KindRational, KindSignedRational:
		parts := make([]string, len(v.Rationals))
		for i, r := range v.Rationals {
			parts[i] = r.String()
		}
		return joinList(parts)
	case KindInteger:
		parts := make([]string, len(v.Ints))
		for i, n := range v.Ints {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return joinList(parts)
	default:
		return v.Text
	}
}

func joinList(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Table is the decoded view of one metadata segment. The zero value is an
// empty table.
type Table struct {
	known map[TagID]Value
	extra map[string]Value
	err   error
}

func newTable() Table {
	return Table{
		known: make(map[TagID]Value),
		extra: make(map[string]Value),
	}
}

// emptyTable records why nothing could be decoded.
func emptyTable(err error) Table {
	return Table{err: err}
}

// NewTable builds a table from qualified names. Unrecognized names are kept
// in the generic part of the table.
func NewTable(values map[string]Value) Table {
	t := newTable()
	for name, v := range values {
		t.set(name, v)
	}
	return t
}

func (t *Table) set(name string, v Value) {
	if t.known == nil {
		t.known = make(map[TagID]Value)
		t.extra = make(map[string]Value)
	}
	if id, ok := byQualified[name]; ok {
		t.known[id] = v
		return
	}
	t.extra[name] = v
}

// Get returns a recognized tag.
func (t Table) Get(id TagID) (Value, bool) {
	v, ok := t.known[id]
	return v, ok
}

// Text returns the trimmed ASCII value of a recognized tag, or "".
func (t Table) Text(id TagID) string {
	v, ok := t.known[id]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// Lookup finds any tag by qualified name.
func (t Table) Lookup(name string) (Value, bool) {
	if id, ok := byQualified[name]; ok {
		return t.Get(id)
	}
	v, ok := t.extra[name]
	return v, ok
}

// Len returns the number of decoded tags.
func (t Table) Len() int {
	return len(t.known) + len(t.extra)
}

// Empty reports whether no tags were decoded.
func (t Table) Empty() bool {
	return t.Len() == 0
}

// Err explains an empty table. It is informational only.
func (t Table) Err() error {
	return t.err
}

// Names returns all qualified names in lexical order.
func (t Table) Names() []string {
	names := make([]string, 0, t.Len())
	for id := range t.known {
		names = append(names, id.Name())
	}
	for name := range t.extra {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
