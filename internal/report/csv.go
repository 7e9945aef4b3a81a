package report

import (
	"encoding/csv"
	"io"
)

// CSVHeader is the first line of a CSV report.
var CSVHeader = []string{"filename", "path", "date", "latitude", "longitude", "camera"}

// CSV writes one line per record.
type CSV struct{}

func (CSV) Name() string      { return "csv" }
func (CSV) Extension() string { return ".csv" }

func (CSV) Write(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		if err := cw.Write([]string{row.Filename, row.Path, row.Date, row.Latitude, row.Longitude, row.Camera}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
