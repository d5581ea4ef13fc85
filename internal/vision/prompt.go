package vision

import (
	"fmt"
	"strings"
)

// extractionTemperature is fixed low so extraction output stays close to
// deterministic for the same page image.
const extractionTemperature = 0.1

// ExtractionPrompt is the fixed instruction set for one page of a scanned
// multiple-choice test paper.
const ExtractionPrompt = `You are reading one page of a scanned multiple-choice test paper. Extract every question on the page. For each question return:

- "number": the question number exactly as printed
- "text": the complete question text; write any mathematical notation as inline LaTeX delimited by $...$
- "option_a" / "option_b" / "option_c" / "option_d": the full text of each of the four options; if an option is purely a picture, use a short placeholder like "(see diagram)"
- "has_diagram": true when the question relies on a figure, graph, table, or any other visual content
- "diagram_box": when the question has its own diagram, a tight bounding box around it as [ymin, xmin, ymax, xmax] with every coordinate scaled to 0-1000 relative to the page
- "option_a_box" .. "option_d_box": when an option itself contains visual content, a tight 0-1000 bounding box around that option's visual

Rules:
- Transcribe faithfully; do not paraphrase, renumber, or reorder.
- Every question has exactly four options. Never omit an option field.
- Bounding boxes must be tight around the visual content only, excluding surrounding text.
- Skip instructions, headers, footers, and anything that is not a question.
- Return an empty array if the page contains no questions.`

// BuildPagePrompt assembles the per-page extraction prompt. A non-empty text
// hint (the PDF's embedded text layer) is appended to help with hard scans.
func BuildPagePrompt(pageNumber int, textHint string) string {
	var sb strings.Builder
	sb.WriteString(ExtractionPrompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "This is page %d of the paper.\n", pageNumber)
	if hint := strings.TrimSpace(textHint); hint != "" {
		sb.WriteString("\nThe page's embedded text layer is below. Trust the image where they disagree.\n---\n")
		sb.WriteString(hint)
		sb.WriteString("\n---\n")
	}
	return sb.String()
}

// CaptionPrompt instructs the model on a single cropped diagram region.
const CaptionPrompt = `This image is a region cropped from a test paper. If it contains text, transcribe that text exactly. Otherwise, describe the visual content in one or two brief sentences. Respond with the transcription or description only.`
