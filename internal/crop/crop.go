// Package crop cuts diagram regions out of rendered page images using the
// normalized bounding boxes reported by the extraction model.
package crop

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/png"
	"time"

	"github.com/mcqscan/mcqscan/internal/question"
)

// padFraction is the padding applied around a detected box on each side,
// relative to the box's own extent, before clamping to the image bounds. A
// little slack keeps tightly detected diagrams from losing their edges.
const padFraction = 0.025

// DefaultTimeout bounds a single crop+encode so one stuck image cannot hold
// a queue slot forever.
const DefaultTimeout = 10 * time.Second

// Result is a successfully cropped region, ready to attach to a question.
type Result struct {
	Image  image.Image
	PNG    []byte
	Width  int
	Height int
}

// Crop extracts the padded region described by box from src. It returns
// (nil, nil) when the box degenerates (either extent below 1 unit of 1000),
// when the padded rectangle clamps to nothing, or when the deadline expires;
// a missing crop is an absent result, never an error.
func Crop(ctx context.Context, src image.Image, box question.BoundingBox) (*Result, error) {
	if box.Degenerate() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	type cropped struct {
		res *Result
		err error
	}
	done := make(chan cropped, 1)
	go func() {
		res, err := cropSync(src, box)
		done <- cropped{res: res, err: err}
	}()

	select {
	case c := <-done:
		return c.res, c.err
	case <-ctx.Done():
		return nil, nil
	}
}

func cropSync(src image.Image, box question.BoundingBox) (*Result, error) {
	bounds := src.Bounds()
	rect := box.Rect(bounds.Dx(), bounds.Dy()).Add(bounds.Min)
	rect = pad(rect).Intersect(bounds)
	if rect.Empty() {
		return nil, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return &Result{
		Image:  dst,
		PNG:    buf.Bytes(),
		Width:  rect.Dx(),
		Height: rect.Dy(),
	}, nil
}

func pad(r image.Rectangle) image.Rectangle {
	dx := int(float64(r.Dx()) * padFraction)
	dy := int(float64(r.Dy()) * padFraction)
	return image.Rect(r.Min.X-dx, r.Min.Y-dy, r.Max.X+dx, r.Max.Y+dy)
}
