package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcqscan/mcqscan/internal/crop"
	"github.com/mcqscan/mcqscan/internal/question"
	"github.com/mcqscan/mcqscan/internal/raster"
)

// Extractor is the model boundary the pipeline drives. *vision.Client is the
// production implementation.
type Extractor interface {
	ExtractPage(ctx context.Context, pagePNG []byte, pageNumber int, textHint string) ([]question.Question, error)
	Caption(ctx context.Context, cropPNG []byte) (string, error)
}

// PagePipeline processes one rendered page: a single extraction call, then
// concurrent crop+caption enrichment for every diagram region the model
// reported.
type PagePipeline struct {
	model Extractor
	log   *slog.Logger
}

func NewPagePipeline(model Extractor, log *slog.Logger) *PagePipeline {
	return &PagePipeline{model: model, log: log}
}

// Process extracts and enriches one page. Extraction failure is isolated at
// page granularity: the page contributes zero questions and the document
// carries on. The returned questions are final — every launched crop+caption
// pair has settled by the time Process returns.
func (p *PagePipeline) Process(ctx context.Context, page raster.Page) []question.Question {
	qs, err := p.model.ExtractPage(ctx, page.PNG, page.Number, page.TextHint)
	if err != nil {
		p.log.Warn("page extraction failed, contributing zero questions",
			"page", page.Number, "error", err)
		return nil
	}

	var wg sync.WaitGroup
	for i := range qs {
		p.enrich(ctx, &wg, page, &qs[i])
	}
	wg.Wait()

	return qs
}

// enrich launches one crop+caption pair per present bounding box: the
// question-level diagram plus up to four option-level ones. All pairs run
// concurrently with each other; no ordering is guaranteed among them.
func (p *PagePipeline) enrich(ctx context.Context, wg *sync.WaitGroup, page raster.Page, q *question.Question) {
	if q.Box != nil {
		p.launch(ctx, wg, page, q.ID, "question", *q.Box, &q.Diagram)
	}
	for _, k := range question.Keys {
		opt := q.Options.Get(k)
		if opt.Box != nil {
			p.launch(ctx, wg, page, q.ID, "option "+string(k), *opt.Box, &opt.Diagram)
		}
	}
}

// launch runs a single crop+caption pair. On any failure the slot simply
// stays unset; nothing here can fail the question.
func (p *PagePipeline) launch(ctx context.Context, wg *sync.WaitGroup, page raster.Page, qid, slot string, box question.BoundingBox, dst **question.Diagram) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if d := p.cropAndCaption(ctx, page, qid, slot, box); d != nil {
			*dst = d
		}
	}()
}

func (p *PagePipeline) cropAndCaption(ctx context.Context, page raster.Page, qid, slot string, box question.BoundingBox) *question.Diagram {
	res, err := crop.Crop(ctx, page.Image, box)
	if err != nil || res == nil {
		if err != nil {
			p.log.Warn("crop failed", "question", qid, "slot", slot, "error", err)
		}
		return nil
	}

	caption, err := p.model.Caption(ctx, res.PNG)
	if err != nil {
		p.log.Warn("caption failed", "question", qid, "slot", slot, "error", err)
		return nil
	}

	return &question.Diagram{
		ID:      newULID(),
		PNG:     res.PNG,
		Caption: caption,
	}
}
