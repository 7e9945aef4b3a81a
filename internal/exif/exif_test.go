package exif

import (
	"bytes"
	"testing"

	"github.com/bstardust/exif-analyzer/internal/exiftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_FullJPEG(t *testing.T) {
	table := Decode(bytes.NewReader(exiftest.JPEG(exiftest.Full())))

	require.False(t, table.Empty())
	assert.NoError(t, table.Err())

	assert.Equal(t, "Canon", table.Text(TagMake))
	assert.Equal(t, "Canon EOS 5D", table.Text(TagModel))
	assert.Equal(t, "2021:05:30 18:45:12", table.Text(TagDateTimeOriginal))
	assert.Equal(t, "2021:06:01 10:00:00", table.Text(TagDateTime))

	iso, ok := table.Get(TagISOSpeedRatings)
	require.True(t, ok)
	assert.Equal(t, KindInteger, iso.Kind)
	assert.Equal(t, "400", iso.String())

	exp, ok := table.Get(TagExposureTime)
	require.True(t, ok)
	assert.Equal(t, KindRational, exp.Kind)
	assert.Equal(t, "1/125", exp.String())

	lat, ok := table.Get(TagGPSLatitude)
	require.True(t, ok)
	triple, ok := lat.Triple()
	require.True(t, ok)
	assert.Equal(t, [3]Rational{{40, 1}, {26, 1}, {46, 1}}, triple)
	assert.Equal(t, "W", table.Text(TagGPSLongitudeRef))
}

func TestDecode_RawTIFF(t *testing.T) {
	table := Decode(bytes.NewReader(exiftest.TIFF(exiftest.Spec{Make: "Nikon", Model: "D750"})))

	assert.Equal(t, "Nikon", table.Text(TagMake))
	assert.Equal(t, "D750", table.Text(TagModel))
	_, ok := table.Get(TagGPSLatitude)
	assert.False(t, ok)
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"corrupt", exiftest.Corrupt()},
		{"no app1", exiftest.PlainJPEG()},
		{"empty", nil},
		{"truncated", exiftest.JPEG(exiftest.Full())[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Decode(bytes.NewReader(tt.data))
			assert.True(t, table.Empty())
			assert.Error(t, table.Err())
			_, ok := table.Get(TagMake)
			assert.False(t, ok)
		})
	}
}

func TestTable_LookupQualifiedNames(t *testing.T) {
	table := Decode(bytes.NewReader(exiftest.JPEG(exiftest.Full())))

	v, ok := table.Lookup("EXIF FNumber")
	require.True(t, ok)
	assert.Equal(t, "14/5", v.String())

	v, ok = table.Lookup("Image Software")
	require.True(t, ok)
	assert.Equal(t, "Firmware 1.1", v.String())

	_, ok = table.Lookup("EXIF Nope")
	assert.False(t, ok)

	assert.Contains(t, table.Names(), "GPS GPSLatitude")
}

func TestNewTable_SplitsKnownAndExtra(t *testing.T) {
	table := NewTable(map[string]Value{
		"Image Make":       {Kind: KindASCII, Text: "Sony"},
		"EXIF ExifVersion": {Kind: KindUndefined, Text: "0230"},
	})

	assert.Equal(t, "Sony", table.Text(TagMake))
	v, ok := table.Lookup("EXIF ExifVersion")
	require.True(t, ok)
	assert.Equal(t, "0230", v.String())
	assert.Equal(t, 2, table.Len())
}

func TestThumbnail(t *testing.T) {
	spec := exiftest.Spec{Make: "Apple", Thumbnail: exiftest.Thumb}

	thumb, ok := Thumbnail(bytes.NewReader(exiftest.JPEG(spec)))
	require.True(t, ok)
	assert.Equal(t, exiftest.Thumb, thumb)

	_, ok = Thumbnail(bytes.NewReader(exiftest.JPEG(exiftest.Spec{Make: "Apple"})))
	assert.False(t, ok)

	_, ok = NewCodec().Thumbnail(bytes.NewReader(exiftest.Corrupt()))
	assert.False(t, ok)
}

func TestTagID_Names(t *testing.T) {
	assert.Equal(t, "EXIF DateTimeOriginal", TagDateTimeOriginal.Name())
	assert.Equal(t, NamespaceGPS, TagGPSLongitude.Namespace())
	assert.Equal(t, "ISOSpeedRatings", TagISOSpeedRatings.Field())
	assert.Equal(t, "Unknown", TagUnknown.Name())

	id, ok := ParseTag("Image Make")
	require.True(t, ok)
	assert.Equal(t, TagMake, id)

	assert.Equal(t, "FNumber", StripNamespace("EXIF FNumber"))
	assert.Equal(t, "Plain", StripNamespace("Plain"))
}

func TestRational(t *testing.T) {
	f, ok := Rational{Num: 1, Den: 4}.Float64()
	require.True(t, ok)
	assert.InDelta(t, 0.25, f, 1e-12)

	_, ok = Rational{Num: 1, Den: 0}.Float64()
	assert.False(t, ok)

	assert.Equal(t, "7", Rational{Num: 7, Den: 1}.String())
}

func TestRational_StringLowestTerms(t *testing.T) {
	tests := map[string]Rational{
		"14/5":  {Num: 28, Den: 10},
		"1/125": {Num: 1, Den: 125},
		"50":    {Num: 500, Den: 10},
		"0":     {Num: 0, Den: 7},
		"-1/3":  {Num: 2, Den: -6},
		"1/0":   {Num: 1, Den: 0},
	}

	for want, r := range tests {
		assert.Equal(t, want, r.String(), "%d/%d", r.Num, r.Den)
	}
}

func TestDescribe(t *testing.T) {
	flash := func(code int64) Value { return Value{Kind: KindInteger, Ints: []int64{code}} }

	assert.Equal(t, "Flash did not fire, compulsory flash mode", Describe(TagFlash, flash(16)))
	assert.Equal(t, "Flash fired, auto mode", Describe(TagFlash, flash(0x19)))
	assert.Equal(t, "2", Describe(TagFlash, flash(2)))
	assert.Equal(t, "16", Describe(TagISOSpeedRatings, flash(16)))
	assert.Equal(t, "14/5", Describe(TagFNumber, Value{Kind: KindRational, Rationals: []Rational{{Num: 28, Den: 10}}}))

	table := Decode(bytes.NewReader(exiftest.JPEG(exiftest.Full())))
	v, ok := table.Get(TagFlash)
	require.True(t, ok)
	assert.Equal(t, "Flash did not fire, compulsory flash mode", Describe(TagFlash, v))
}
