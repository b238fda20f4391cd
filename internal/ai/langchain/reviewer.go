package langchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"

	"github.com/prreview/internal/ai"
	"github.com/prreview/internal/prompts"
)

// Caller is the subset of aiconnectors.Connector the reviewer uses.
type Caller interface {
	Call(ctx context.Context, input string, options ...llms.CallOption) (string, error)
}

// Options tunes a Reviewer. Zero values disable the corresponding limit.
type Options struct {
	Language          string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Reviewer sends one prompt per file to the configured model.
type Reviewer struct {
	llm     Caller
	builder *prompts.PromptBuilder
	limiter *rate.Limiter
	timeout time.Duration
}

var _ ai.CodeReviewer = (*Reviewer)(nil)

// NewReviewer creates a reviewer on top of llm.
func NewReviewer(llm Caller, opts Options) *Reviewer {
	r := &Reviewer{
		llm:     llm,
		builder: prompts.NewPromptBuilder(opts.Language),
		timeout: opts.Timeout,
	}
	if opts.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return r
}

// Review returns the model's review text for source.
func (r *Reviewer) Review(ctx context.Context, source string) (string, error) {
	prompt, err := r.builder.BuildFileReviewPrompt(source)
	if err != nil {
		return "", err
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := r.llm.Call(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("model call timed out after %s: %w", r.timeout, err)
		}
		return "", fmt.Errorf("model call failed: %w", err)
	}

	log.Debug().
		Int("prompt_chars", len(prompt)).
		Int("response_chars", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("Model review completed")

	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("model returned an empty review")
	}
	return out, nil
}
