package exif

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/sourcegraph/conc/panics"
)

// ErrNoMetadata is reported by Table.Err when a segment decoded but held no tags.
var ErrNoMetadata = errors.New("no metadata tags")

func init() {
	exif.RegisterParsers(mknote.All...)
}

// structural pointers to sub-IFDs carry no information for callers
var skipFields = map[exif.FieldName]bool{
	exif.ExifIFDPointer:             true,
	exif.GPSInfoIFDPointer:          true,
	exif.InteroperabilityIFDPointer: true,
}

var imageFields = map[string]bool{
	"ImageWidth":                true,
	"ImageLength":               true,
	"BitsPerSample":             true,
	"Compression":               true,
	"PhotometricInterpretation": true,
	"Orientation":               true,
	"SamplesPerPixel":           true,
	"PlanarConfiguration":       true,
	"YCbCrSubSampling":          true,
	"YCbCrPositioning":          true,
	"XResolution":               true,
	"YResolution":               true,
	"ResolutionUnit":            true,
	"DateTime":                  true,
	"ImageDescription":          true,
	"Make":                      true,
	"Model":                     true,
	"Software":                  true,
	"Artist":                    true,
	"Copyright":                 true,
}

// Codec decodes metadata segments. It holds no state and is safe for
// concurrent use.
type Codec struct{}

// NewCodec creates a new codec
func NewCodec() *Codec {
	return &Codec{}
}

// Decode reads the metadata segment at the start of r. Failures never reach
// the caller: they produce an empty table whose Err describes the cause.
func (c *Codec) Decode(r io.Reader) Table {
	return Decode(r)
}

// Thumbnail returns the embedded JPEG thumbnail, if there is one.
func (c *Codec) Thumbnail(r io.Reader) ([]byte, bool) {
	return Thumbnail(r)
}

// Decode is the package level form of Codec.Decode.
func Decode(r io.Reader) Table {
	var x *exif.Exif
	var err error

	// goexif indexes raw offsets from the file, guard against bad ones
	if rec := try(func() { x, err = exif.Decode(r) }); rec != nil {
		err = fmt.Errorf("exif decoder panic: %w", rec.AsError())
		logger.Debug("Failed to decode EXIF: %v", err)
		return emptyTable(err)
	}

	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			logger.Debug("Failed to decode EXIF: %v", err)
			return emptyTable(err)
		}
		// Partial decode, keep what was read
		logger.Debug("Partial EXIF decode: %v", err)
	}

	t := newTable()
	if rec := try(func() { _ = x.Walk(tableWalker{t: &t}) }); rec != nil {
		logger.Debug("EXIF walk aborted: %v", rec.AsError())
	}

	if t.Empty() {
		t.err = ErrNoMetadata
	}
	return t
}

// Thumbnail is the package level form of Codec.Thumbnail.
func Thumbnail(r io.Reader) (thumb []byte, ok bool) {
	rec := try(func() {
		x, err := exif.Decode(r)
		if x == nil || (err != nil && exif.IsCriticalError(err)) {
			return
		}

		data, err := x.JpegThumbnail()
		if err != nil || len(data) == 0 {
			return
		}

		thumb = append([]byte(nil), data...)
		ok = true
	})
	if rec != nil {
		logger.Debug("Failed to read EXIF thumbnail: %v", rec.AsError())
		return nil, false
	}
	return thumb, ok
}

// try runs f and returns the recovered panic, if any.
func try(f func()) *panics.Recovered {
	var pc panics.Catcher
	pc.Try(f)
	return pc.Recovered()
}

// tableWalker copies every tag goexif found into a Table.
type tableWalker struct {
	t *Table
}

func (w tableWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if skipFields[name] || tag == nil {
		return nil
	}

	v, ok := convertTag(tag)
	if !ok {
		return nil
	}

	if id, known := byField[name]; known {
		w.t.known[id] = v
		return nil
	}

	w.t.extra[QualifiedName(namespaceOf(name), string(name))] = v
	return nil
}

func namespaceOf(name exif.FieldName) Namespace {
	n := string(name)
	switch {
	case strings.HasPrefix(n, "GPS"):
		return NamespaceGPS
	case strings.HasPrefix(n, "Thumb"):
		return NamespaceThumbnail
	case strings.HasPrefix(n, "Interoperability"):
		return NamespaceInterop
	case imageFields[n]:
		return NamespaceImage
	default:
		return NamespaceEXIF
	}
}

// convertTag turns a raw tiff tag into a typed Value. Rationals are read as
// raw pairs so a zero denominator never reaches big.Rat.
func convertTag(tag *tiff.Tag) (Value, bool) {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindASCII, Text: strings.TrimRight(s, "\x00 ")}, true

	case tiff.RatVal:
		kind := KindRational
		if tag.Type == tiff.DTSRational {
			kind = KindSignedRational
		}
		rats := make([]Rational, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return Value{}, false
			}
			rats = append(rats, Rational{Num: num, Den: den})
		}
		return Value{Kind: kind, Rationals: rats}, true

	case tiff.IntVal:
		ints := make([]int64, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			n, err := tag.Int64(i)
			if err != nil {
				return Value{}, false
			}
			ints = append(ints, n)
		}
		return Value{Kind: KindInteger, Ints: ints}, true

	default:
		return Value{Kind: KindUndefined, Text: strings.Trim(tag.String(), `"`)}, true
	}
}
