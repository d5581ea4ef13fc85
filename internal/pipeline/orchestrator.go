package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcqscan/mcqscan/internal/config"
	"github.com/mcqscan/mcqscan/internal/question"
	"github.com/mcqscan/mcqscan/internal/raster"
)

// Orchestrator drives document sessions: renders pages, fans the page
// pipeline out across them through a bounded window, aggregates and sorts
// the extracted questions, and tracks progress to a terminal state.
type Orchestrator struct {
	sessions *SessionStore
	queue    chan *Session
	pages    *PagePipeline
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start before submitting.
func NewOrchestrator(cfg config.Config, model Extractor, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: NewSessionStore(cfg.SessionTTL),
		queue:    make(chan *Session, cfg.MaxQueueSize),
		pages:    NewPagePipeline(model, log),
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines and the session-store janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case s, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, s)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.sessions.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a session for processing.
func (o *Orchestrator) Submit(s *Session) error {
	o.sessions.Put(s)
	select {
	case o.queue <- s:
		return nil
	default:
		s.Fail("processing queue is full")
		return fmt.Errorf("session queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetSession returns a session by id, or nil.
func (o *Orchestrator) GetSession(id string) *Session {
	return o.sessions.Get(id)
}

// DeleteSession discards a session's state.
func (o *Orchestrator) DeleteSession(id string) {
	o.sessions.Delete(id)
}

// QueueDepth returns the number of sessions waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// process runs one session to a terminal state.
func (o *Orchestrator) process(ctx context.Context, s *Session) {
	log := o.log.With("session_id", s.ID, "filename", s.Filename)

	s.SetStatus(StatusRendering)
	pages, err := raster.Render(s.PDFData(), raster.Options{
		DPI:       o.cfg.RenderDPI,
		MaxEdge:   o.cfg.MaxRenderEdge,
		TextHints: o.cfg.TextHints,
	})
	if err != nil {
		// Rasterization failure is fatal for the whole run; no partial
		// document state survives.
		log.Error("rasterization failed", "error", err)
		s.Fail("could not process document")
		return
	}
	s.SetPDFData(nil)
	s.SetPagesTotal(len(pages))
	s.SetStatus(StatusExtracting)
	log.Info("rendered document", "pages", len(pages))

	all := o.runPages(ctx, s, pages)

	// Page completion order is nondeterministic; the final sort restores
	// (page, question number) order.
	question.Sort(all)
	s.Complete(all)
	log.Info("session complete", "questions", len(all))
}

// runPages fans the page pipeline out through a small window. True
// model-call concurrency is already bounded by the shared task queue; the
// window caps how many page images sit in flight at once.
func (o *Orchestrator) runPages(ctx context.Context, s *Session, pages []raster.Page) []question.Question {
	window := o.cfg.PageWindow
	if window < 1 {
		window = 1
	}

	results := make(chan []question.Question, len(pages))
	sem := make(chan struct{}, window)

	for _, pg := range pages {
		sem <- struct{}{}
		go func(pg raster.Page) {
			defer func() { <-sem }()
			results <- o.pages.Process(ctx, pg)
		}(pg)
	}

	var all []question.Question
	for range pages {
		all = append(all, <-results...)
		s.PageDone()
	}
	return all
}
