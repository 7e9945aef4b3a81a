package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/bstardust/exif-analyzer/internal/exif"
)

// Precision is the number of fractional digits kept in resolved coordinates.
const Precision = 6

// ErrZeroDenominator is returned when a rational in a DMS triple has a zero
// denominator.
var ErrZeroDenominator = errors.New("zero denominator in rational")

// Coordinates is a position in signed decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the coordinates as "lat,lon".
func (c Coordinates) String() string {
	return FormatDegrees(c.Latitude) + "," + FormatDegrees(c.Longitude)
}

// MapURL appends "lat,lon" to base, e.g. "https://maps.example/?q=".
func (c Coordinates) MapURL(base string) string {
	return base + c.String()
}

// FormatDegrees prints a coordinate with Precision digits.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', Precision, 64)
}

// ToDecimalDegrees computes d + m/60 + s/3600.
func ToDecimalDegrees(dms [3]exif.Rational) (float64, error) {
	var parts [3]float64
	for i, r := range dms {
		f, ok := r.Float64()
		if !ok {
			return 0, ErrZeroDenominator
		}
		parts[i] = f
	}
	return parts[0] + parts[1]/60 + parts[2]/3600, nil
}

// Round rounds v to Precision fractional digits.
func Round(v float64) float64 {
	scale := math.Pow(10, Precision)
	return math.Round(v*scale) / scale
}

// ResolveCoordinates reads latitude and longitude from t. Missing, partial
// or invalid GPS data yields ok == false, never an error.
func ResolveCoordinates(t exif.Table) (c Coordinates, ok bool) {
	lat, ok := resolveAxis(t, exif.TagGPSLatitude, exif.TagGPSLatitudeRef, "S")
	if !ok {
		return Coordinates{}, false
	}
	lon, ok := resolveAxis(t, exif.TagGPSLongitude, exif.TagGPSLongitudeRef, "W")
	if !ok {
		return Coordinates{}, false
	}

	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return Coordinates{}, false
	}

	return Coordinates{Latitude: Round(lat), Longitude: Round(lon)}, true
}

func resolveAxis(t exif.Table, valueTag, refTag exif.TagID, negativeRef string) (float64, bool) {
	v, ok := t.Get(valueTag)
	if !ok {
		return 0, false
	}
	triple, ok := v.Triple()
	if !ok {
		return 0, false
	}

	deg, err := ToDecimalDegrees(triple)
	if err != nil || math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, false
	}

	if strings.EqualFold(t.Text(refTag), negativeRef) {
		deg = -deg
	}
	return deg, true
}
