package question

import "strings"

// placeholderText stands in for an option whose content is purely visual.
// The invariant is that all four option texts are always present.
const placeholderText = "(see diagram)"

// Validate checks a freshly extracted question and normalizes it in place.
// Returns false for records not worth keeping (no number, no text at all).
// Option texts are never left empty: blank options get placeholder text so
// downstream consumers can rely on all four slots being populated.
func Validate(q *Question) bool {
	if q == nil {
		return false
	}
	q.Text = strings.TrimSpace(q.Text)
	if q.Number <= 0 || q.Text == "" {
		return false
	}
	for _, k := range Keys {
		opt := q.Options.Get(k)
		opt.Text = strings.TrimSpace(opt.Text)
		if opt.Text == "" {
			opt.Text = placeholderText
		}
		// A degenerate option box carries no croppable content.
		if opt.Box != nil && opt.Box.Degenerate() {
			opt.Box = nil
		}
	}
	if q.Box != nil && q.Box.Degenerate() {
		q.Box = nil
	}
	return true
}
