package question

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
)

// boxSpace is the coordinate space bounding boxes are reported in. The model
// describes rectangles in 0-1000 units relative to the page image, so
// detection output is independent of rendering resolution.
const boxSpace = 1000.0

// minExtent is the smallest normalized width/height considered a real box.
// Anything thinner degenerates and is treated as absent.
const minExtent = 1.0

// BoundingBox is a rectangle in normalized 0-1000 space. On the wire it is
// an array of exactly four numbers: [ymin, xmin, ymax, xmax].
type BoundingBox struct {
	YMin, XMin, YMax, XMax float64
}

// UnmarshalJSON accepts the model's [ymin, xmin, ymax, xmax] array form.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return err
	}
	if len(coords) != 4 {
		return fmt.Errorf("bounding box: expected 4 coordinates, got %d", len(coords))
	}
	b.YMin, b.XMin, b.YMax, b.XMax = coords[0], coords[1], coords[2], coords[3]
	return nil
}

// MarshalJSON emits the array form.
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{b.YMin, b.XMin, b.YMax, b.XMax})
}

// Normalized returns the box with min/max components swapped into order, so
// that YMin <= YMax and XMin <= XMax.
func (b BoundingBox) Normalized() BoundingBox {
	if b.YMin > b.YMax {
		b.YMin, b.YMax = b.YMax, b.YMin
	}
	if b.XMin > b.XMax {
		b.XMin, b.XMax = b.XMax, b.XMin
	}
	return b
}

// Degenerate reports whether the order-normalized box is too thin to crop:
// either extent below one unit out of 1000.
func (b BoundingBox) Degenerate() bool {
	n := b.Normalized()
	return n.YMax-n.YMin < minExtent || n.XMax-n.XMin < minExtent
}

// Rect maps the order-normalized box onto an image of the given pixel
// dimensions.
func (b BoundingBox) Rect(width, height int) image.Rectangle {
	n := b.Normalized()
	return image.Rect(
		int(math.Round(n.XMin/boxSpace*float64(width))),
		int(math.Round(n.YMin/boxSpace*float64(height))),
		int(math.Round(n.XMax/boxSpace*float64(width))),
		int(math.Round(n.YMax/boxSpace*float64(height))),
	)
}
