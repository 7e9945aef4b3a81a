// Package exiftest builds small JPEG and TIFF files carrying EXIF data for
// tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

var le = binary.LittleEndian

// Rat is an unsigned rational as stored in a TIFF RATIONAL.
type Rat [2]uint32

// DMS builds a degrees/minutes/seconds triple with unit denominators.
func DMS(d, m, s uint32) [3]Rat {
	return [3]Rat{{d, 1}, {m, 1}, {s, 1}}
}

// GPS describes the GPS IFD.
type GPS struct {
	Lat    [3]Rat
	LatRef string
	Lon    [3]Rat
	LonRef string
	// OmitLon leaves the longitude out to produce partial GPS data.
	OmitLon bool
}

// Spec lists the tags to write. Zero values are omitted.
type Spec struct {
	Make             string
	Model            string
	Software         string
	DateTime         string
	DateTimeOriginal string
	ISO              uint16
	ExposureTime     *Rat
	FNumber          *Rat
	FocalLength      *Rat
	Flash            *uint16
	GPS              *GPS
	Thumbnail        []byte
}

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func ascii(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func short(tag uint16, v uint16) entry {
	b := make([]byte, 2)
	le.PutUint16(b, v)
	return entry{tag: tag, typ: typeShort, count: 1, data: b}
}

func long(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: b}
}

func rationals(tag uint16, vals ...Rat) entry {
	b := make([]byte, 8*len(vals))
	for i, v := range vals {
		le.PutUint32(b[8*i:], v[0])
		le.PutUint32(b[8*i+4:], v[1])
	}
	return entry{tag: tag, typ: typeRational, count: uint32(len(vals)), data: b}
}

func ifdSize(entries []entry) uint32 {
	size := uint32(2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.data) > 4 {
			size += uint32(len(e.data) + len(e.data)%2)
		}
	}
	return size
}

func writeIFD(entries []entry, at, next uint32) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	var head, data bytes.Buffer
	dataOff := at + uint32(2+12*len(entries)+4)

	b2 := make([]byte, 2)
	b4 := make([]byte, 4)

	le.PutUint16(b2, uint16(len(entries)))
	head.Write(b2)
	for _, e := range entries {
		le.PutUint16(b2, e.tag)
		head.Write(b2)
		le.PutUint16(b2, e.typ)
		head.Write(b2)
		le.PutUint32(b4, e.count)
		head.Write(b4)

		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			head.Write(v)
			continue
		}

		le.PutUint32(b4, dataOff)
		head.Write(b4)
		data.Write(e.data)
		dataOff += uint32(len(e.data))
		if len(e.data)%2 == 1 {
			data.WriteByte(0)
			dataOff++
		}
	}
	le.PutUint32(b4, next)
	head.Write(b4)

	return append(head.Bytes(), data.Bytes()...)
}

// TIFF returns a little-endian TIFF stream holding the tags in s.
func TIFF(s Spec) []byte {
	var ifd0, exifIFD, gpsIFD, ifd1 []entry

	if s.Make != "" {
		ifd0 = append(ifd0, ascii(0x010F, s.Make))
	}
	if s.Model != "" {
		ifd0 = append(ifd0, ascii(0x0110, s.Model))
	}
	if s.Software != "" {
		ifd0 = append(ifd0, ascii(0x0131, s.Software))
	}
	if s.DateTime != "" {
		ifd0 = append(ifd0, ascii(0x0132, s.DateTime))
	}

	if s.ExposureTime != nil {
		exifIFD = append(exifIFD, rationals(0x829A, *s.ExposureTime))
	}
	if s.FNumber != nil {
		exifIFD = append(exifIFD, rationals(0x829D, *s.FNumber))
	}
	if s.ISO != 0 {
		exifIFD = append(exifIFD, short(0x8827, s.ISO))
	}
	if s.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(0x9003, s.DateTimeOriginal))
	}
	if s.Flash != nil {
		exifIFD = append(exifIFD, short(0x9209, *s.Flash))
	}
	if s.FocalLength != nil {
		exifIFD = append(exifIFD, rationals(0x920A, *s.FocalLength))
	}

	if g := s.GPS; g != nil {
		gpsIFD = append(gpsIFD,
			ascii(0x0001, g.LatRef),
			rationals(0x0002, g.Lat[:]...),
		)
		if !g.OmitLon {
			gpsIFD = append(gpsIFD,
				ascii(0x0003, g.LonRef),
				rationals(0x0004, g.Lon[:]...),
			)
		}
	}

	// pointer entries take their final values once offsets are known
	exifPtr, gpsPtr := -1, -1
	if len(exifIFD) > 0 {
		exifPtr = len(ifd0)
		ifd0 = append(ifd0, long(0x8769, 0))
	}
	if len(gpsIFD) > 0 {
		gpsPtr = len(ifd0)
		ifd0 = append(ifd0, long(0x8825, 0))
	}
	if len(s.Thumbnail) > 0 {
		ifd1 = []entry{long(0x0201, 0), long(0x0202, uint32(len(s.Thumbnail)))}
	}
	if len(ifd0) == 0 {
		// a TIFF needs at least one entry in IFD0
		ifd0 = append(ifd0, short(0x0112, 1))
	}

	off0 := uint32(8)
	offExif := off0 + ifdSize(ifd0)
	offGPS := offExif
	if len(exifIFD) > 0 {
		offGPS += ifdSize(exifIFD)
	}
	offIFD1 := offGPS
	if len(gpsIFD) > 0 {
		offIFD1 += ifdSize(gpsIFD)
	}
	offThumb := offIFD1
	if len(ifd1) > 0 {
		offThumb += ifdSize(ifd1)
		le.PutUint32(ifd1[0].data, offThumb)
	}

	if exifPtr >= 0 {
		le.PutUint32(ifd0[exifPtr].data, offExif)
	}
	if gpsPtr >= 0 {
		le.PutUint32(ifd0[gpsPtr].data, offGPS)
	}

	var out bytes.Buffer
	out.Write([]byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00})

	next0 := uint32(0)
	if len(ifd1) > 0 {
		next0 = offIFD1
	}
	out.Write(writeIFD(ifd0, off0, next0))
	if len(exifIFD) > 0 {
		out.Write(writeIFD(exifIFD, offExif, 0))
	}
	if len(gpsIFD) > 0 {
		out.Write(writeIFD(gpsIFD, offGPS, 0))
	}
	if len(ifd1) > 0 {
		out.Write(writeIFD(ifd1, offIFD1, 0))
		out.Write(s.Thumbnail)
	}
	return out.Bytes()
}

// JPEG wraps the TIFF stream for s into an APP1 segment of a minimal JPEG.
func JPEG(s Spec) []byte {
	payload := append([]byte("Exif\x00\x00"), TIFF(s)...)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	size := make([]byte, 2)
	binary.BigEndian.PutUint16(size, uint16(len(payload)+2))
	out.Write(size)
	out.Write(payload)
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}

// PlainJPEG returns a JPEG without any APP1 segment.
func PlainJPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x04, 0x00, 0x00, 0xFF, 0xD9}
}

// Corrupt returns bytes that look like nothing the decoder understands.
func Corrupt() []byte {
	return []byte("this is not an image, just a text file with a .jpg name")
}

// Thumb is a tiny byte blob usable as an embedded thumbnail.
var Thumb = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x02, 0xFF, 0xD9}

// WriteFile writes data to dir/name, creating parent directories.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Pittsburgh is the GPS block for 40°26'46"N 79°58'56"W.
func Pittsburgh() *GPS {
	return &GPS{
		Lat:    DMS(40, 26, 46),
		LatRef: "N",
		Lon:    DMS(79, 58, 56),
		LonRef: "W",
	}
}

// Full returns a spec exercising every tag the analyzer reads.
func Full() Spec {
	flash := uint16(16)
	return Spec{
		Make:             "Canon",
		Model:            "Canon EOS 5D",
		Software:         "Firmware 1.1",
		DateTime:         "2021:06:01 10:00:00",
		DateTimeOriginal: "2021:05:30 18:45:12",
		ISO:              400,
		ExposureTime:     &Rat{1, 125},
		FNumber:          &Rat{28, 10},
		FocalLength:      &Rat{50, 1},
		Flash:            &flash,
		GPS:              Pittsburgh(),
	}
}
