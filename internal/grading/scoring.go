package grading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/rubric-grader/internal/llm"
	"github.com/jonathan/rubric-grader/internal/observability"
)

// ScoringConfig controls the retry policy around the external call.
type ScoringConfig struct {
	// MaxRetries is the retry budget after the first attempt.
	// 2 retries means 3 attempts total.
	MaxRetries int
	// BaseDelay is the initial backoff delay; it doubles per attempt.
	BaseDelay time.Duration
	// AttemptTimeout bounds a single call so a hung request cannot stall a
	// worker. It is separate from the backoff schedule.
	AttemptTimeout time.Duration
}

// DefaultScoringConfig mirrors the production retry policy: three attempts
// with 1s and 2s backoff, two minutes per attempt.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		MaxRetries:     2,
		BaseDelay:      time.Second,
		AttemptTimeout: 2 * time.Minute,
	}
}

// ScoringClient wraps one external scoring call with retry and exponential
// backoff. It holds no mutable state and is safe for concurrent use.
type ScoringClient struct {
	client llm.Client
	config ScoringConfig
	logger zerolog.Logger
}

// NewScoringClient wraps the given client with the retry policy.
func NewScoringClient(client llm.Client, config ScoringConfig, logger zerolog.Logger) *ScoringClient {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	return &ScoringClient{client: client, config: config, logger: logger}
}

// Score submits the document and prompt, retrying on failure until the
// budget is exhausted. The backoff delay doubles per attempt, measured from
// the moment of failure. After the budget is spent the last failure is
// returned as a ServiceError; there is no partial-success state.
func (c *ScoringClient) Score(ctx context.Context, document []byte, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		observability.ScoringDuration().Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		reply, err := c.attempt(ctx, document, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if attempt == c.config.MaxRetries {
			break
		}

		delay := c.config.BaseDelay << attempt
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("scoring call failed, retrying")
		observability.ScoringRetries().Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", &ServiceError{Message: "scoring aborted during backoff", Cause: ctx.Err()}
		}
	}

	return "", &ServiceError{Message: "call failed after retries", Cause: lastErr}
}

// attempt runs a single bounded call. A timeout surfaces like any other
// transport failure and stays eligible for retry.
func (c *ScoringClient) attempt(ctx context.Context, document []byte, prompt string) (string, error) {
	if c.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.AttemptTimeout)
		defer cancel()
	}
	return c.client.GradeDocument(ctx, document, prompt)
}
