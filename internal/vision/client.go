// Package vision talks to the Gemini API: structured page extraction and
// free-text diagram captioning. All calls share one credential, one bounded
// task queue, and one retry discipline.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mcqscan/mcqscan/internal/stats"
	"github.com/mcqscan/mcqscan/internal/taskq"
)

// ErrMissingAPIKey is the configuration error returned before any queue
// admission or retry when no credential is available.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// Config carries the client's credential and call discipline.
type Config struct {
	APIKey       string
	ExtractModel string
	CaptionModel string
	MaxRetries   int
	InitialDelay time.Duration
}

// Client is the process-wide Gemini client. The credential is read once at
// construction; a client built without one stays usable but fails every call
// fast with ErrMissingAPIKey.
type Client struct {
	genai        *genai.Client
	extractModel *genai.GenerativeModel
	captionModel *genai.GenerativeModel
	queue        *taskq.Queue
	stats        *stats.Recorder
	log          *slog.Logger
	maxRetries   int
	initialDelay time.Duration
}

// NewClient dials Gemini. An empty API key is not an error here: a missing
// credential is a per-call configuration failure, so the server can come up
// and report it on first use.
func NewClient(ctx context.Context, cfg Config, q *taskq.Queue, rec *stats.Recorder, log *slog.Logger) (*Client, error) {
	c := &Client{
		queue:        q,
		stats:        rec,
		log:          log,
		maxRetries:   cfg.MaxRetries,
		initialDelay: cfg.InitialDelay,
	}
	if c.initialDelay <= 0 {
		c.initialDelay = time.Second
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return c, nil
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("dial gemini: %w", err)
	}
	c.genai = cl

	c.extractModel = cl.GenerativeModel(cfg.ExtractModel)
	c.extractModel.SetTemperature(extractionTemperature)
	c.extractModel.GenerationConfig.ResponseMIMEType = "application/json"
	c.extractModel.GenerationConfig.ResponseSchema = pageSchema

	c.captionModel = cl.GenerativeModel(cfg.CaptionModel)
	c.captionModel.SetTemperature(extractionTemperature)

	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c.genai != nil {
		c.genai.Close()
	}
}

// generate performs one model call through the shared queue, with
// rate-limited failures retried under exponential backoff while the slot is
// held. Returns the first text part of the response.
func (c *Client) generate(ctx context.Context, op string, m *genai.GenerativeModel, parts ...genai.Part) (string, error) {
	var raw string
	start := time.Now()
	err := c.queue.Do(ctx, func() error {
		resp, err := taskq.RunWithRetry(ctx, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
			return m.GenerateContent(ctx, parts...)
		}, c.maxRetries, c.initialDelay)
		if err != nil {
			return err
		}
		raw = firstText(resp)
		return nil
	})
	c.stats.Record(op, time.Since(start), err != nil)
	if err != nil {
		return "", err
	}
	return stripCodeBlock(raw), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
