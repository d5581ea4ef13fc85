package vision

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/mcqscan/mcqscan/internal/stats"
)

// Caption describes one cropped diagram region: embedded text is transcribed
// verbatim, anything else gets a brief visual description. Same credential,
// queue, and retry discipline as extraction. A post-retry failure propagates
// to the caller, which degrades it to an unset caption field.
func (c *Client) Caption(ctx context.Context, cropPNG []byte) (string, error) {
	if c.genai == nil {
		return "", ErrMissingAPIKey
	}

	raw, err := c.generate(ctx, stats.OpCaption, c.captionModel,
		genai.Text(CaptionPrompt),
		genai.ImageData("png", cropPNG),
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
