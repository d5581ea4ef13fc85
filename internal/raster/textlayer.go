package raster

import (
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// maxHintLen bounds one page's text hint so a dense text layer doesn't crowd
// the extraction prompt.
const maxHintLen = 4000

// TextHints extracts the embedded text layer of each page, indexed page-1.
// Purely best-effort: a scan without a text layer, or any parse failure,
// yields nil and the extraction simply runs without hints.
func TextHints(data []byte) []string {
	// ledongthuc/pdf needs a ReadSeeker plus size, so go through a temp file.
	tmp, err := os.CreateTemp("", "mcqscan-pdf-*.pdf")
	if err != nil {
		return nil
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	hints := make([]string, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		hints[i-1] = pageText(reader, i)
	}

	// A hint list with no content is as good as none.
	for _, h := range hints {
		if h != "" {
			return hints
		}
	}
	return nil
}

func pageText(reader *pdflib.Reader, n int) string {
	defer func() {
		// The parser panics on some malformed content streams.
		_ = recover()
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	txt, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	txt = strings.TrimSpace(txt)
	if len(txt) > maxHintLen {
		txt = txt[:maxHintLen]
	}
	return txt
}
