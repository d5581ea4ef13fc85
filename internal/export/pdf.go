package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/mcqscan/mcqscan/internal/question"
)

// diagramWidthMM is the rendered width of an embedded diagram in the PDF
// report; height follows the image's aspect ratio.
const diagramWidthMM = 80.0

// WritePDF emits the paginated formatted report.
func WritePDF(w io.Writer, filename string, qs []question.Question) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 7, tr(fmt.Sprintf("Extracted questions — %s", filename)), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d question(s)", len(qs))), "", "L", false)
	pdf.Ln(4)

	for _, q := range qs {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("Question %d (page %d)", q.Number, q.Page)), "", "L", false)

		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr(q.Text), "", "L", false)

		if q.Diagram != nil {
			embedDiagram(pdf, q.Diagram, tr)
		}

		for _, k := range question.Keys {
			opt := q.Options.Get(k)
			pdf.MultiCell(0, 5, tr("   "+optionLabel(k, opt)), "", "L", false)
			if opt.Diagram != nil {
				embedDiagram(pdf, opt.Diagram, tr)
			}
		}
		pdf.Ln(4)
	}

	return pdf.Output(w)
}

func embedDiagram(pdf *fpdf.Fpdf, d *question.Diagram, tr func(string) string) {
	if len(d.PNG) == 0 {
		if d.Caption != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.MultiCell(0, 5, tr("Diagram: "+d.Caption), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
		}
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(d.ID, opts, bytes.NewReader(d.PNG))
	pdf.ImageOptions(d.ID, pdf.GetX(), pdf.GetY(), diagramWidthMM, 0, true, opts, 0, "")
	if d.Caption != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 4, tr(d.Caption), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
	}
	pdf.Ln(2)
}
