package vision

import (
	"context"
	"encoding/json"

	"github.com/google/generative-ai-go/genai"

	"github.com/mcqscan/mcqscan/internal/question"
	"github.com/mcqscan/mcqscan/internal/stats"
)

var boxSchema = &genai.Schema{
	Type:        genai.TypeArray,
	Items:       &genai.Schema{Type: genai.TypeNumber},
	Description: "[ymin, xmin, ymax, xmax], each coordinate 0-1000 relative to the page",
}

// pageSchema is the structured-output contract for one page. The four option
// fields are required, so every returned question carries all of A-D.
var pageSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"number":       {Type: genai.TypeInteger, Description: "question number as printed"},
			"text":         {Type: genai.TypeString, Description: "full question text, math as $...$"},
			"option_a":     {Type: genai.TypeString},
			"option_b":     {Type: genai.TypeString},
			"option_c":     {Type: genai.TypeString},
			"option_d":     {Type: genai.TypeString},
			"has_diagram":  {Type: genai.TypeBoolean},
			"diagram_box":  boxSchema,
			"option_a_box": boxSchema,
			"option_b_box": boxSchema,
			"option_c_box": boxSchema,
			"option_d_box": boxSchema,
		},
		Required: []string{"number", "text", "option_a", "option_b", "option_c", "option_d", "has_diagram"},
	},
}

// pageQuestion is the wire form of one extracted question.
type pageQuestion struct {
	Number     int                   `json:"number"`
	Text       string                `json:"text"`
	OptionA    string                `json:"option_a"`
	OptionB    string                `json:"option_b"`
	OptionC    string                `json:"option_c"`
	OptionD    string                `json:"option_d"`
	HasDiagram bool                  `json:"has_diagram"`
	DiagramBox *question.BoundingBox `json:"diagram_box,omitempty"`
	OptionABox *question.BoundingBox `json:"option_a_box,omitempty"`
	OptionBBox *question.BoundingBox `json:"option_b_box,omitempty"`
	OptionCBox *question.BoundingBox `json:"option_c_box,omitempty"`
	OptionDBox *question.BoundingBox `json:"option_d_box,omitempty"`
}

// ExtractPage sends one rendered page to the model and parses the structured
// result. The call goes through the shared queue with backoff on rate
// limits. A missing credential fails immediately, before queuing. A response
// that is empty or not valid JSON yields an empty slice and no error, so the
// document can continue with its other pages.
func (c *Client) ExtractPage(ctx context.Context, pagePNG []byte, pageNumber int, textHint string) ([]question.Question, error) {
	if c.genai == nil {
		return nil, ErrMissingAPIKey
	}

	raw, err := c.generate(ctx, stats.OpExtract, c.extractModel,
		genai.Text(BuildPagePrompt(pageNumber, textHint)),
		genai.ImageData("png", pagePNG),
	)
	if err != nil {
		return nil, err
	}

	qs := parsePageQuestions(raw, pageNumber)
	if qs == nil {
		c.log.Warn("unparseable extraction response, treating page as empty",
			"page", pageNumber, "raw", truncate(raw, 200))
		return []question.Question{}, nil
	}
	return qs, nil
}

// parsePageQuestions converts the model's JSON into validated questions.
// Returns nil (distinct from an empty list) when the payload isn't valid.
func parsePageQuestions(raw string, pageNumber int) []question.Question {
	var wire []pageQuestion
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil
	}

	qs := make([]question.Question, 0, len(wire))
	for i, pq := range wire {
		q := question.Question{
			ID:     question.NewID(pageNumber, i+1),
			Page:   pageNumber,
			Number: pq.Number,
			Text:   pq.Text,
			Options: question.Options{
				A: question.Option{Text: pq.OptionA, Box: pq.OptionABox},
				B: question.Option{Text: pq.OptionB, Box: pq.OptionBBox},
				C: question.Option{Text: pq.OptionC, Box: pq.OptionCBox},
				D: question.Option{Text: pq.OptionD, Box: pq.OptionDBox},
			},
			HasDiagram: pq.HasDiagram,
			Box:        pq.DiagramBox,
		}
		if question.Validate(&q) {
			qs = append(qs, q)
		}
	}
	return qs
}
