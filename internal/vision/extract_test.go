package vision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mcqscan/mcqscan/internal/stats"
	"github.com/mcqscan/mcqscan/internal/taskq"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParsePageQuestions_FullRecord(t *testing.T) {
	raw := `[{
		"number": 7,
		"text": "What is the value of $x^2$ when $x = 3$?",
		"option_a": "6",
		"option_b": "9",
		"option_c": "12",
		"option_d": "(see diagram)",
		"has_diagram": true,
		"diagram_box": [100, 100, 200, 200],
		"option_d_box": [300, 100, 350, 200]
	}]`

	qs := parsePageQuestions(raw, 2)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	q := qs[0]
	if q.ID != "p2-q1" {
		t.Errorf("expected id p2-q1, got %q", q.ID)
	}
	if q.Page != 2 || q.Number != 7 {
		t.Errorf("expected page 2 number 7, got page %d number %d", q.Page, q.Number)
	}
	if q.Options.B.Text != "9" {
		t.Errorf("expected option B text 9, got %q", q.Options.B.Text)
	}
	if q.Box == nil || q.Box.YMin != 100 || q.Box.XMax != 200 {
		t.Errorf("expected question-level box [100 100 200 200], got %+v", q.Box)
	}
	if q.Options.D.Box == nil {
		t.Error("expected option D box to be present")
	}
	if q.Options.A.Box != nil {
		t.Error("expected no box on option A")
	}
}

func TestParsePageQuestions_MalformedIsNil(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"number": 1}`, "```"} {
		if qs := parsePageQuestions(raw, 1); qs != nil {
			t.Errorf("raw %q: expected nil, got %v", raw, qs)
		}
	}
}

func TestParsePageQuestions_EmptyArray(t *testing.T) {
	qs := parsePageQuestions("[]", 1)
	if qs == nil || len(qs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", qs)
	}
}

func TestParsePageQuestions_DropsInvalidRecords(t *testing.T) {
	raw := `[
		{"number": 0, "text": "no number", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d"},
		{"number": 2, "text": "", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d"},
		{"number": 3, "text": "kept", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d"}
	]`
	qs := parsePageQuestions(raw, 1)
	if len(qs) != 1 {
		t.Fatalf("expected 1 valid question, got %d", len(qs))
	}
	if qs[0].Number != 3 {
		t.Errorf("expected question 3 to survive, got %d", qs[0].Number)
	}
}

func TestParsePageQuestions_BlankOptionGetsPlaceholder(t *testing.T) {
	raw := `[{"number": 1, "text": "Which figure?", "option_a": "", "option_b": "b", "option_c": "c", "option_d": "d", "option_a_box": [10, 10, 100, 100]}]`
	qs := parsePageQuestions(raw, 1)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if qs[0].Options.A.Text == "" {
		t.Error("expected placeholder text for blank option A")
	}
}

func TestParsePageQuestions_DegenerateBoxDropped(t *testing.T) {
	raw := `[{"number": 1, "text": "q", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "diagram_box": [100, 100, 100.5, 200]}]`
	qs := parsePageQuestions(raw, 1)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if qs[0].Box != nil {
		t.Errorf("expected degenerate diagram box to be dropped, got %+v", qs[0].Box)
	}
}

func TestMissingCredentialFailsBeforeQueue(t *testing.T) {
	// Occupy the queue's only slot: a call that tried to queue would block,
	// but the configuration error must fire first.
	q := taskq.New(1)
	if err := q.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer q.Release()

	c, err := NewClient(context.Background(), Config{}, q, stats.NewRecorder(time.Hour), testLogger())
	if err != nil {
		t.Fatalf("client without key must construct: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, extractErr := c.ExtractPage(ctx, []byte("png"), 1, "")
	if !errors.Is(extractErr, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey from ExtractPage, got %v", extractErr)
	}
	if _, captionErr := c.Caption(ctx, []byte("png")); !errors.Is(captionErr, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey from Caption, got %v", captionErr)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("configuration error must fail fast, not wait on the queue")
	}
	if q.Waiting() != 0 {
		t.Errorf("expected no queue admission, %d waiting", q.Waiting())
	}
}

func TestStripCodeBlock(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```\n[]\n```", "[]"},
		{"[]", "[]"},
		{"  [1] ", "[1]"},
	}
	for _, tt := range tests {
		if got := stripCodeBlock(tt.in); got != tt.want {
			t.Errorf("stripCodeBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
