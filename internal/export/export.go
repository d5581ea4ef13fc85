// Package export renders a session's final question list into the report
// formats the UI offers for download. Every format reproduces, per question,
// the number, text, four options, and any attached diagram image + caption,
// in document order.
package export

import (
	"fmt"
	"io"

	"github.com/mcqscan/mcqscan/internal/question"
)

// Format identifies a report format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatJSON Format = "json"
	FormatText Format = "txt"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatPDF, FormatDocx, FormatJSON, FormatText, FormatHTML}

// ContentType returns the MIME type served for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Write renders the question list in the given format. Questions are
// emitted in the order given, which the orchestrator has already sorted
// into document order.
func Write(w io.Writer, f Format, filename string, qs []question.Question) error {
	switch f {
	case FormatPDF:
		return WritePDF(w, filename, qs)
	case FormatDocx:
		return WriteDocx(w, filename, qs)
	case FormatJSON:
		return WriteJSON(w, filename, qs)
	case FormatText:
		return WriteText(w, filename, qs)
	case FormatHTML:
		return WriteHTML(w, filename, qs)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// optionLabel formats one option line. Shared by the plain-text shaped
// formats.
func optionLabel(k question.OptionKey, o *question.Option) string {
	s := fmt.Sprintf("%s) %s", k, o.Text)
	if o.Diagram != nil && o.Diagram.Caption != "" {
		s += fmt.Sprintf(" [diagram: %s]", o.Diagram.Caption)
	}
	return s
}
