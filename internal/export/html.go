package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/yuin/goldmark"

	"github.com/mcqscan/mcqscan/internal/question"
)

const htmlHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; }
img { max-width: 24rem; display: block; margin: 0.5rem 0; }
.caption { color: #666; font-style: italic; }
</style>
</head>
<body>
`

// WriteHTML emits a standalone HTML report. The body is built as Markdown
// and rendered with goldmark; diagram crops are inlined as data URIs so the
// file has no external references.
func WriteHTML(w io.Writer, filename string, qs []question.Question) error {
	var md bytes.Buffer

	fmt.Fprintf(&md, "# Extracted questions — %s\n\n", filename)
	fmt.Fprintf(&md, "%d question(s)\n\n", len(qs))

	for _, q := range qs {
		fmt.Fprintf(&md, "## Question %d (page %d)\n\n", q.Number, q.Page)
		fmt.Fprintf(&md, "%s\n\n", q.Text)
		if q.Diagram != nil {
			writeDiagramMarkdown(&md, q.Diagram)
		}
		for _, k := range question.Keys {
			opt := q.Options.Get(k)
			fmt.Fprintf(&md, "- **%s)** %s\n", k, opt.Text)
		}
		md.WriteString("\n")
		for _, k := range question.Keys {
			if d := q.Options.Get(k).Diagram; d != nil {
				fmt.Fprintf(&md, "Option %s:\n\n", k)
				writeDiagramMarkdown(&md, d)
			}
		}
	}

	if _, err := fmt.Fprintf(w, htmlHeader, filename); err != nil {
		return err
	}
	if err := goldmark.Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

func writeDiagramMarkdown(md *bytes.Buffer, d *question.Diagram) {
	if len(d.PNG) > 0 {
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(d.PNG)
		fmt.Fprintf(md, "![diagram](%s)\n\n", uri)
	}
	if d.Caption != "" {
		fmt.Fprintf(md, "*%s*\n\n", d.Caption)
	}
}
