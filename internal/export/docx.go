package export

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"

	"github.com/mcqscan/mcqscan/internal/question"
)

// WriteDocx emits the text-flow Word document.
func WriteDocx(w io.Writer, filename string, qs []question.Question) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(fmt.Sprintf("Extracted questions — %s", filename)).Size("32")
	doc.AddParagraph().AddText(fmt.Sprintf("%d question(s)", len(qs)))
	doc.AddParagraph()

	for _, q := range qs {
		doc.AddParagraph().AddText(fmt.Sprintf("Question %d (page %d)", q.Number, q.Page)).Size("26")
		doc.AddParagraph().AddText(q.Text)

		if q.Diagram != nil {
			addDiagram(doc, q.Diagram)
		}
		for _, k := range question.Keys {
			opt := q.Options.Get(k)
			doc.AddParagraph().AddText("   " + optionLabel(k, opt))
			if opt.Diagram != nil {
				addDiagram(doc, opt.Diagram)
			}
		}
		doc.AddParagraph()
	}

	_, err := doc.WriteTo(w)
	return err
}

func addDiagram(doc *docx.Docx, d *question.Diagram) {
	if len(d.PNG) > 0 {
		// A crop that fails to embed still leaves its caption in the text.
		_, _ = doc.AddParagraph().AddInlineDrawing(d.PNG)
	}
	if d.Caption != "" {
		doc.AddParagraph().AddText("Diagram: " + d.Caption).Color("666666")
	}
}
