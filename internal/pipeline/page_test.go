package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/mcqscan/mcqscan/internal/question"
	"github.com/mcqscan/mcqscan/internal/raster"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPage(number int) raster.Page {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	return raster.Page{
		Number: number,
		Image:  img,
		PNG:    []byte("page-png"),
		Width:  400,
		Height: 400,
	}
}

// fakeModel scripts the extraction and caption behavior per page.
type fakeModel struct {
	extract  func(pageNumber int) ([]question.Question, error)
	captions int32
	caption  func() (string, error)
}

func (f *fakeModel) ExtractPage(ctx context.Context, png []byte, pageNumber int, hint string) ([]question.Question, error) {
	return f.extract(pageNumber)
}

func (f *fakeModel) Caption(ctx context.Context, png []byte) (string, error) {
	atomic.AddInt32(&f.captions, 1)
	if f.caption != nil {
		return f.caption()
	}
	return "a labeled diagram", nil
}

func plainQuestion(page, number int) question.Question {
	return question.Question{
		ID:     question.NewID(page, number),
		Page:   page,
		Number: number,
		Text:   "Which of the following holds?",
		Options: question.Options{
			A: question.Option{Text: "a"},
			B: question.Option{Text: "b"},
			C: question.Option{Text: "c"},
			D: question.Option{Text: "d"},
		},
	}
}

func TestProcessPage_NoDiagrams(t *testing.T) {
	model := &fakeModel{
		extract: func(int) ([]question.Question, error) {
			return []question.Question{plainQuestion(1, 1)}, nil
		},
	}
	pp := NewPagePipeline(model, testLogger())

	qs := pp.Process(context.Background(), testPage(1))
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if qs[0].Diagram != nil {
		t.Error("expected no question-level diagram")
	}
	for _, k := range question.Keys {
		if qs[0].Options.Get(k).Diagram != nil {
			t.Errorf("expected no diagram on option %s", k)
		}
	}
	if model.captions != 0 {
		t.Errorf("expected no caption calls, got %d", model.captions)
	}
}

func TestProcessPage_ExtractionFailureYieldsZeroQuestions(t *testing.T) {
	model := &fakeModel{
		extract: func(int) ([]question.Question, error) {
			return nil, errors.New("rate limit budget exhausted")
		},
	}
	pp := NewPagePipeline(model, testLogger())

	qs := pp.Process(context.Background(), testPage(1))
	if len(qs) != 0 {
		t.Fatalf("expected zero questions for a failed page, got %d", len(qs))
	}
}

func TestProcessPage_QuestionAndOptionCropsBothAttach(t *testing.T) {
	q := plainQuestion(1, 1)
	q.HasDiagram = true
	q.Box = &question.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 200}
	q.Options.A.Box = &question.BoundingBox{YMin: 300, XMin: 100, YMax: 350, XMax: 200}

	model := &fakeModel{
		extract: func(int) ([]question.Question, error) {
			return []question.Question{q}, nil
		},
	}
	pp := NewPagePipeline(model, testLogger())

	qs := pp.Process(context.Background(), testPage(1))
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	got := qs[0]
	if got.Diagram == nil {
		t.Fatal("expected question-level diagram to be attached")
	}
	if got.Diagram.Caption == "" || len(got.Diagram.PNG) == 0 || got.Diagram.ID == "" {
		t.Errorf("incomplete question diagram: %+v", got.Diagram)
	}
	if got.Options.A.Diagram == nil {
		t.Fatal("expected option A diagram to be attached")
	}
	if got.Options.B.Diagram != nil {
		t.Error("expected no diagram on option B")
	}
	if model.captions != 2 {
		t.Errorf("expected 2 caption calls (question + option A), got %d", model.captions)
	}
}

func TestProcessPage_CaptionFailureLeavesSlotUnset(t *testing.T) {
	q := plainQuestion(1, 1)
	q.Box = &question.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 200}

	model := &fakeModel{
		extract: func(int) ([]question.Question, error) {
			return []question.Question{q}, nil
		},
		caption: func() (string, error) {
			return "", errors.New("terminal caption failure")
		},
	}
	pp := NewPagePipeline(model, testLogger())

	qs := pp.Process(context.Background(), testPage(1))
	if len(qs) != 1 {
		t.Fatalf("expected the question to survive, got %d questions", len(qs))
	}
	if qs[0].Diagram != nil {
		t.Error("expected the diagram slot to stay unset after caption failure")
	}
}

func TestProcessPage_DegenerateBoxSkipsCaption(t *testing.T) {
	q := plainQuestion(1, 1)
	q.Box = &question.BoundingBox{YMin: 100, XMin: 100, YMax: 100.2, XMax: 200}

	model := &fakeModel{
		extract: func(int) ([]question.Question, error) {
			return []question.Question{q}, nil
		},
	}
	pp := NewPagePipeline(model, testLogger())

	qs := pp.Process(context.Background(), testPage(1))
	if qs[0].Diagram != nil {
		t.Error("expected no diagram for a degenerate box")
	}
	if model.captions != 0 {
		t.Errorf("expected no caption call for a degenerate box, got %d", model.captions)
	}
}
