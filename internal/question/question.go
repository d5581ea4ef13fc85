// Package question defines the data model for extracted multiple-choice
// questions: the question record with its four fixed options, normalized
// bounding boxes in 0-1000 space, and the diagram slots filled in during
// enrichment.
package question

import (
	"fmt"
	"sort"
)

// OptionKey identifies one of the four answer options.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// Keys lists the option keys in display order.
var Keys = []OptionKey{OptionA, OptionB, OptionC, OptionD}

// Diagram is a cropped region of the page plus its caption. Both fields are
// filled together when a crop+caption pair succeeds; a question or option
// without a diagram simply carries a nil *Diagram.
type Diagram struct {
	ID      string `json:"id"`
	PNG     []byte `json:"png,omitempty"`
	Caption string `json:"caption"`
}

// Option is one answer choice. Text is always present (placeholder text when
// the option itself is a picture). Box and Diagram are present only when the
// model detected visual content inside the option.
type Option struct {
	Text    string       `json:"text"`
	Box     *BoundingBox `json:"box,omitempty"`
	Diagram *Diagram     `json:"diagram,omitempty"`
}

// Options is the fixed A-D record. Modelling the four slots as named fields
// (rather than a keyed map) makes presence checks exhaustive at compile time.
type Options struct {
	A Option `json:"a"`
	B Option `json:"b"`
	C Option `json:"c"`
	D Option `json:"d"`
}

// Get returns a pointer to the option for key, or nil for an unknown key.
func (o *Options) Get(k OptionKey) *Option {
	switch k {
	case OptionA:
		return &o.A
	case OptionB:
		return &o.B
	case OptionC:
		return &o.C
	case OptionD:
		return &o.D
	}
	return nil
}

// Question is one extracted multiple-choice question. It is created by the
// extraction client, mutated in place while diagram crops and captions
// resolve, and immutable afterwards. Text may embed inline math delimited by
// $...$.
type Question struct {
	ID         string       `json:"id"`
	Page       int          `json:"page"`
	Number     int          `json:"number"`
	Text       string       `json:"text"`
	Options    Options      `json:"options"`
	HasDiagram bool         `json:"has_diagram"`
	Box        *BoundingBox `json:"box,omitempty"`
	Diagram    *Diagram     `json:"diagram,omitempty"`
}

// NewID builds the per-session-unique question id from page number and the
// question's index within that page.
func NewID(page, index int) string {
	return fmt.Sprintf("p%d-q%d", page, index)
}

// Sort orders questions by page number ascending, then question number
// ascending. The sort is stable, so re-sorting an already sorted list is a
// no-op and the final order is deterministic given the same per-page results.
func Sort(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Page != qs[j].Page {
			return qs[i].Page < qs[j].Page
		}
		return qs[i].Number < qs[j].Number
	})
}
