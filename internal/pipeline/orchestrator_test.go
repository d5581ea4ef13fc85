package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mcqscan/mcqscan/internal/config"
	"github.com/mcqscan/mcqscan/internal/question"
	"github.com/mcqscan/mcqscan/internal/raster"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:  1,
		MaxQueueSize: 4,
		SessionTTL:   time.Hour,
		PageWindow:   2,
	}
}

func TestRunPages_AggregatesAndSortsAcrossPages(t *testing.T) {
	// Pages complete in arbitrary order; the final list must still come out
	// ordered by (page, number).
	model := &fakeModel{
		extract: func(pageNumber int) ([]question.Question, error) {
			return []question.Question{
				plainQuestion(pageNumber, 2),
				plainQuestion(pageNumber, 1),
			}, nil
		},
	}
	o := NewOrchestrator(testConfig(), model, testLogger())
	s := NewSession("paper.pdf", nil)
	pages := []raster.Page{testPage(1), testPage(2), testPage(3)}
	s.SetPagesTotal(len(pages))

	all := o.runPages(context.Background(), s, pages)
	question.Sort(all)

	if len(all) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(all))
	}
	prevPage, prevNum := 0, 0
	for _, q := range all {
		if q.Page < prevPage || (q.Page == prevPage && q.Number < prevNum) {
			t.Fatalf("list out of order at page %d number %d", q.Page, q.Number)
		}
		prevPage, prevNum = q.Page, q.Number
	}
}

func TestRunPages_FailedPageIsIsolated(t *testing.T) {
	// One page exhausts its retries; the other two still contribute and the
	// session reaches 100 percent with no fatal error.
	model := &fakeModel{
		extract: func(pageNumber int) ([]question.Question, error) {
			if pageNumber == 2 {
				return nil, errors.New("quota exceeded after retries")
			}
			return []question.Question{plainQuestion(pageNumber, 1)}, nil
		},
	}
	o := NewOrchestrator(testConfig(), model, testLogger())
	s := NewSession("paper.pdf", nil)
	pages := []raster.Page{testPage(1), testPage(2), testPage(3)}
	s.SetPagesTotal(len(pages))

	all := o.runPages(context.Background(), s, pages)
	question.Sort(all)
	s.Complete(all)

	if len(all) != 2 {
		t.Fatalf("expected questions from 2 surviving pages, got %d", len(all))
	}
	for _, q := range all {
		if q.Page == 2 {
			t.Error("failed page must contribute zero questions")
		}
	}
	snap := s.Snapshot()
	if snap.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", snap.Status)
	}
	if snap.Progress.Percent != 100 {
		t.Errorf("expected progress 100, got %d", snap.Progress.Percent)
	}
	if snap.Progress.QuestionCount != 2 {
		t.Errorf("expected question count 2, got %d", snap.Progress.QuestionCount)
	}
}

func TestRunPages_SinglePageNoDiagrams(t *testing.T) {
	model := &fakeModel{
		extract: func(pageNumber int) ([]question.Question, error) {
			return []question.Question{plainQuestion(pageNumber, 1)}, nil
		},
	}
	o := NewOrchestrator(testConfig(), model, testLogger())
	s := NewSession("single.pdf", nil)
	pages := []raster.Page{testPage(1)}
	s.SetPagesTotal(1)

	all := o.runPages(context.Background(), s, pages)
	question.Sort(all)
	s.Complete(all)

	if len(all) != 1 {
		t.Fatalf("expected 1 question, got %d", len(all))
	}
	if all[0].Diagram != nil {
		t.Error("expected no diagram fields")
	}
	if s.Snapshot().Progress.Percent != 100 {
		t.Errorf("expected progress 100, got %d", s.Snapshot().Progress.Percent)
	}
}

func TestOrchestrator_SubmitQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	model := &fakeModel{extract: func(int) ([]question.Question, error) { return nil, nil }}
	o := NewOrchestrator(cfg, model, testLogger())
	// No workers started: the first submit fills the only queue slot.

	if err := o.Submit(NewSession("a.pdf", nil)); err != nil {
		t.Fatalf("first submit should succeed: %v", err)
	}
	s2 := NewSession("b.pdf", nil)
	if err := o.Submit(s2); err == nil {
		t.Fatal("expected queue-full error")
	}
	if s2.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected session to be failed, got %s", s2.Snapshot().Status)
	}
}

func TestSession_ProgressMonotonic(t *testing.T) {
	s := NewSession("paper.pdf", nil)
	s.SetPagesTotal(4)

	last := -1
	for i := 0; i < 4; i++ {
		s.PageDone()
		p := s.Snapshot().Progress.Percent
		if p < last {
			t.Fatalf("progress went backwards: %d -> %d", last, p)
		}
		last = p
	}
	if last != 100 {
		t.Errorf("expected final progress 100, got %d", last)
	}
}

func TestSession_FailWithholdsResults(t *testing.T) {
	s := NewSession("paper.pdf", nil)
	s.Complete([]question.Question{plainQuestion(1, 1)})
	s.Fail("could not process document")

	snap := s.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", snap.Status)
	}
	if snap.Error != "could not process document" {
		t.Errorf("expected readable reason, got %q", snap.Error)
	}
	if s.Questions() != nil {
		t.Error("expected no partial results after a document-level failure")
	}
}

func TestSessionStore_TTLCleanup(t *testing.T) {
	store := NewSessionStore(50 * time.Millisecond)

	old := NewSession("old.pdf", nil)
	store.Put(old)
	time.Sleep(100 * time.Millisecond)

	fresh := NewSession("fresh.pdf", nil)
	store.Put(fresh)
	store.Cleanup()

	if store.Get(old.ID) != nil {
		t.Error("expected expired session to be evicted")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh session to survive")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(time.Hour)
	s := NewSession("paper.pdf", nil)
	store.Put(s)
	store.Delete(s.ID)
	if store.Get(s.ID) != nil {
		t.Error("expected deleted session to be gone")
	}
}
