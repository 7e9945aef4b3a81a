package metadata

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bstardust/exif-analyzer/internal/exif"
	"github.com/bstardust/exif-analyzer/internal/exiftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ascii(s string) exif.Value {
	return exif.Value{Kind: exif.KindASCII, Text: s}
}

func TestBuild_FullRecord(t *testing.T) {
	dir := t.TempDir()
	data := exiftest.JPEG(exiftest.Full())
	path := exiftest.WriteFile(t, dir, "IMG_0001.jpg", data)

	table := exif.Decode(bytes.NewReader(data))
	r := NewBuilder().Build(path, table)

	assert.Equal(t, path, r.Path())
	assert.Equal(t, "IMG_0001.jpg", r.Filename())
	assert.Equal(t, uint64(len(data)), r.SizeBytes())
	assert.True(t, r.HasMetadata())

	d, ok := r.Date()
	require.True(t, ok)
	assert.True(t, d.Parsed)
	assert.Equal(t, "2021:05:30 18:45:12", d.Raw)
	assert.Equal(t, "30.05.2021 18:45", d.String())

	cam, ok := r.Camera()
	require.True(t, ok)
	assert.Equal(t, "Canon Canon EOS 5D", cam)

	gps, ok := r.GPS()
	require.True(t, ok)
	assert.Equal(t, 40.446111, gps.Latitude)
	assert.Equal(t, -79.982222, gps.Longitude)

	assert.Equal(t, map[string]string{
		"Software":        "Firmware 1.1",
		"ISOSpeedRatings": "400",
		"ExposureTime":    "1/125",
		"FNumber":         "14/5",
		"FocalLength":     "50",
		"Flash":           "Flash did not fire, compulsory flash mode",
	}, r.Technical())
}

func TestBuild_NoMetadata(t *testing.T) {
	dir := t.TempDir()
	path := exiftest.WriteFile(t, dir, "plain.jpg", exiftest.PlainJPEG())

	r := NewBuilder().Build(path, exif.Decode(bytes.NewReader(exiftest.PlainJPEG())))

	assert.False(t, r.HasMetadata())
	_, ok := r.Date()
	assert.False(t, ok)
	_, ok = r.Camera()
	assert.False(t, ok)
	_, ok = r.GPS()
	assert.False(t, ok)
	assert.Empty(t, r.Technical())
	assert.Equal(t, uint64(len(exiftest.PlainJPEG())), r.SizeBytes())
}

func TestBuild_DateFallbackAndRaw(t *testing.T) {
	b := NewBuilder(WithStat(func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }))

	r := b.Build("a.jpg", exif.NewTable(map[string]exif.Value{
		"Image DateTime": ascii("2019:01:02 03:04:05"),
	}))
	d, ok := r.Date()
	require.True(t, ok)
	assert.True(t, d.Parsed)
	assert.Equal(t, time.Date(2019, 1, 2, 3, 4, 5, 0, time.UTC), d.Time)

	r = b.Build("b.jpg", exif.NewTable(map[string]exif.Value{
		"EXIF DateTimeOriginal": ascii("sometime in 2019"),
		"Image DateTime":        ascii("2019:01:02 03:04:05"),
	}))
	d, ok = r.Date()
	require.True(t, ok)
	assert.False(t, d.Parsed)
	assert.Equal(t, "sometime in 2019", d.String())
	assert.Equal(t, "sometime in 2019", d.Format(time.RFC3339))
	assert.Equal(t, uint64(0), r.SizeBytes())
}

func TestBuild_CameraTrimming(t *testing.T) {
	b := NewBuilder(WithStat(func(string) (os.FileInfo, error) { return nil, errors.New("boom") }))

	tests := []struct {
		maker, model string
		want         string
		ok           bool
	}{
		{"  Canon ", " EOS R5 ", "Canon EOS R5", true},
		{"", "iPhone 13", "iPhone 13", true},
		{"Nikon", "", "Nikon", true},
		{"  ", "", "", false},
	}

	for _, tt := range tests {
		values := map[string]exif.Value{}
		if tt.maker != "" {
			values["Image Make"] = ascii(tt.maker)
		}
		if tt.model != "" {
			values["Image Model"] = ascii(tt.model)
		}
		cam, ok := b.Build("x.jpg", exif.NewTable(values)).Camera()
		assert.Equal(t, tt.ok, ok, "make=%q model=%q", tt.maker, tt.model)
		assert.Equal(t, tt.want, cam)
	}
}

func TestBuild_TechnicalAllowList(t *testing.T) {
	b := NewBuilder(
		WithTechnicalFields("EXIF ExifVersion", "EXIF FNumber"),
		WithStat(func(string) (os.FileInfo, error) { return nil, os.ErrPermission }),
	)

	r := b.Build("x.jpg", exif.NewTable(map[string]exif.Value{
		"EXIF ExifVersion": {Kind: exif.KindUndefined, Text: "0230"},
		"EXIF FNumber":     {Kind: exif.KindRational, Rationals: []exif.Rational{{Num: 18, Den: 10}}},
		"Image Software":   ascii("ignored"),
	}))

	tech := r.Technical()
	assert.Equal(t, map[string]string{"ExifVersion": "0230", "FNumber": "18/10"}, tech)

	tech["FNumber"] = "changed"
	assert.Equal(t, "18/10", r.Technical()["FNumber"])
}

func TestBuild_ZeroGPSIsPresent(t *testing.T) {
	dir := t.TempDir()
	spec := exiftest.Spec{GPS: &exiftest.GPS{
		Lat: exiftest.DMS(0, 0, 0), LatRef: "N",
		Lon: exiftest.DMS(0, 0, 0), LonRef: "E",
	}}
	data := exiftest.JPEG(spec)
	path := exiftest.WriteFile(t, dir, "null-island.jpg", data)

	r := NewBuilder().Build(path, exif.Decode(bytes.NewReader(data)))
	gps, ok := r.GPS()
	require.True(t, ok)
	assert.Zero(t, gps.Latitude)
	assert.Zero(t, gps.Longitude)
	assert.True(t, r.HasMetadata())
}

func TestHumanSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.jpg")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	r := NewBuilder().Build(path, exif.Table{})
	assert.Equal(t, uint64(2048), r.SizeBytes())
	assert.Equal(t, "2.0 kB", r.HumanSize())
}

func TestBuild_WithLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	table := exif.NewTable(map[string]exif.Value{
		"EXIF DateTimeOriginal": ascii("2021:05:30 18:45:12"),
	})
	stat := WithStat(func(string) (os.FileInfo, error) { return nil, os.ErrNotExist })

	d, ok := NewBuilder(stat, WithLocation(berlin)).Build("a.jpg", table).Date()
	require.True(t, ok)
	assert.Equal(t, berlin, d.Time.Location())
	assert.Equal(t, time.Date(2021, 5, 30, 16, 45, 12, 0, time.UTC), d.Time.UTC())
	// display keeps the wall clock of the camera
	assert.Equal(t, "30.05.2021 18:45", d.String())

	d, ok = NewBuilder(stat, WithLocation(nil)).Build("a.jpg", table).Date()
	require.True(t, ok)
	assert.Equal(t, time.UTC, d.Time.Location())
}
