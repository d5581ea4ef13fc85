package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mcqscan/mcqscan/internal/question"
)

// WriteText emits the plain-text dump.
func WriteText(w io.Writer, filename string, qs []question.Question) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Extracted questions — %s\n", filename)
	fmt.Fprintf(bw, "%d question(s)\n\n", len(qs))

	for _, q := range qs {
		fmt.Fprintf(bw, "Question %d (page %d)\n", q.Number, q.Page)
		fmt.Fprintln(bw, q.Text)
		if q.Diagram != nil && q.Diagram.Caption != "" {
			fmt.Fprintf(bw, "[Diagram: %s]\n", q.Diagram.Caption)
		}
		for _, k := range question.Keys {
			fmt.Fprintf(bw, "  %s\n", optionLabel(k, q.Options.Get(k)))
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}
