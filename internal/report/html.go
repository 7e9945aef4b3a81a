package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/bstardust/exif-analyzer/internal/metadata"
)

//go:embed assets/report.tmpl
var reportTmpl string

//go:embed assets/style.css
var styleText string

var htmlTemplate = template.Must(template.New("report").Funcs(tmplFunctions()).Parse(reportTmpl))

// HTML writes a standalone page with a summary block and a table of records.
type HTML struct{}

func (HTML) Name() string      { return "html" }
func (HTML) Extension() string { return ".html" }

func (HTML) Write(w io.Writer, r Report) error {
	data := struct {
		GeneratedAt string
		Total       int
		Processed   int
		Skipped     int
		Canceled    bool
		Rows        []Row
		Style       template.CSS
	}{
		GeneratedAt: r.GeneratedAt.Format(metadata.DisplayDateLayout),
		Total:       r.Summary.Total,
		Processed:   r.Summary.Records,
		Skipped:     r.Summary.Skipped,
		Canceled:    r.Summary.Canceled,
		Rows:        r.Rows(),
		Style:       template.CSS(styleText),
	}

	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

// tmplFunctions are functions available to the report template.
func tmplFunctions() template.FuncMap {
	return template.FuncMap{
		"Odd": func(i int) bool {
			return i%2 == 1
		},
		"OrDash": func(s string) string {
			if s == "" {
				return "-"
			}
			return s
		},
	}
}
