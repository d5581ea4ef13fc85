package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/mcqscan/mcqscan/internal/question"
)

// jsonDump is the structured data dump. Diagram PNG bytes serialize as
// base64 through encoding/json's []byte handling.
type jsonDump struct {
	Filename      string              `json:"filename"`
	ExportedAt    time.Time           `json:"exported_at"`
	QuestionCount int                 `json:"question_count"`
	Questions     []question.Question `json:"questions"`
}

// WriteJSON emits the full structured dump.
func WriteJSON(w io.Writer, filename string, qs []question.Question) error {
	if qs == nil {
		qs = []question.Question{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDump{
		Filename:      filename,
		ExportedAt:    time.Now().UTC(),
		QuestionCount: len(qs),
		Questions:     qs,
	})
}
