package llm

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

const (
	// DefaultModel matches Gemini's free-tier flash model.
	DefaultModel = "gemini-2.5-flash"

	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// GeminiClient calls the official genai SDK with retry and client-side rate
// limiting built in.
type GeminiClient struct {
	cli     *genai.Client
	model   string
	limiter *rpsLimiter

	maxAttempts int
	baseDelay   time.Duration
}

// NewGeminiClient builds a client for model. The genai SDK reads
// GEMINI_API_KEY from the environment; we check it up front so the failure
// is reported at startup rather than on the first request.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	if strings.TrimSpace(os.Getenv("GEMINI_API_KEY")) == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		cli:         cli,
		model:       model,
		limiter:     newRPSLimiter(rpsFromEnv(), 1),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}, nil
}

// NewFromEnv returns a Gemini client when GEMINI_API_KEY is set, or
// (nil, ErrNoAPIKey) when it is not. CARTOGRAPH_GEMINI_MODEL overrides the
// default model.
func NewFromEnv(ctx context.Context) (*GeminiClient, error) {
	return NewGeminiClient(ctx, strings.TrimSpace(os.Getenv("CARTOGRAPH_GEMINI_MODEL")))
}

func rpsFromEnv() float64 {
	// Free tier allows ~15 RPM; stay just under it by default.
	const freeTierRPS = 0.2
	raw := strings.TrimSpace(os.Getenv("CARTOGRAPH_GEMINI_RPS"))
	if raw == "" {
		return freeTierRPS
	}
	rps, err := strconv.ParseFloat(raw, 64)
	if err != nil || rps <= 0 {
		return freeTierRPS
	}
	return rps
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

func (g *GeminiClient) Close() error {
	g.limiter.Stop()
	return nil
}

// GenerateText sends the prompt and returns the model's text. Transient
// failures are retried with exponential backoff; a PermanentError stops
// immediately.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	var last error
	for i := 0; i < g.maxAttempts; i++ {
		if err := g.limiter.Acquire(ctx); err != nil {
			return "", err
		}
		text, err := g.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		time.Sleep(g.baseDelay * time.Duration(1<<i))
	}
	return "", last
}

func (g *GeminiClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}, nil)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}
