package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/bstardust/exif-analyzer/internal/geo"
)

type jsonDate struct {
	Raw  string     `json:"raw"`
	Time *time.Time `json:"time,omitempty"`
}

type jsonRecord struct {
	Filename  string            `json:"filename"`
	Path      string            `json:"path"`
	SizeBytes uint64            `json:"sizeBytes"`
	Size      string            `json:"size"`
	Date      *jsonDate         `json:"date,omitempty"`
	Camera    string            `json:"camera,omitempty"`
	GPS       *geo.Coordinates  `json:"gps,omitempty"`
	MapLink   string            `json:"mapLink,omitempty"`
	Technical map[string]string `json:"technical,omitempty"`
}

type jsonSummary struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Skipped     int       `json:"skipped"`
	Canceled    bool      `json:"canceled,omitempty"`
}

type jsonReport struct {
	Summary jsonSummary  `json:"summary"`
	Records []jsonRecord `json:"records"`
}

// JSON writes the summary and all record fields. Absent fields are omitted.
type JSON struct{}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return ".json" }

func (JSON) Write(w io.Writer, r Report) error {
	out := jsonReport{
		Summary: jsonSummary{
			GeneratedAt: r.GeneratedAt,
			Total:       r.Summary.Total,
			Processed:   r.Summary.Records,
			Skipped:     r.Summary.Skipped,
			Canceled:    r.Summary.Canceled,
		},
		Records: make([]jsonRecord, 0, len(r.Records)),
	}

	for _, rec := range r.Records {
		jr := jsonRecord{
			Filename:  rec.Filename(),
			Path:      rec.Path(),
			SizeBytes: rec.SizeBytes(),
			Size:      rec.HumanSize(),
		}
		if d, ok := rec.Date(); ok {
			jr.Date = &jsonDate{Raw: d.Raw}
			if d.Parsed {
				t := d.Time
				jr.Date.Time = &t
			}
		}
		jr.Camera, _ = rec.Camera()
		if c, ok := rec.GPS(); ok {
			jr.GPS = &c
			jr.MapLink = c.MapURL(r.MapURL)
		}
		if tech := rec.Technical(); len(tech) > 0 {
			jr.Technical = tech
		}
		out.Records = append(out.Records, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
