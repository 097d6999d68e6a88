package grading

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jonathan/rubric-grader/internal/observability"
)

// Scorer is the single external call the grader depends on. *ScoringClient
// satisfies it; tests substitute fakes.
type Scorer interface {
	Score(ctx context.Context, document []byte, prompt string) (string, error)
}

// Grader runs one submission end to end: size check, prompt, scoring call,
// extraction. Every failure is folded into the returned result; a GradeOne
// call never aborts the batch.
type Grader struct {
	scorer       Scorer
	maxFileBytes int
	logger       zerolog.Logger
}

// NewGrader builds a grader around a scorer. maxFileBytes is the hard
// per-file ceiling; zero or negative disables the check.
func NewGrader(scorer Scorer, maxFileBytes int, logger zerolog.Logger) *Grader {
	return &Grader{scorer: scorer, maxFileBytes: maxFileBytes, logger: logger}
}

// GradeOne grades a single submission against the rubric. Oversized files
// fail without consuming a service call; exhausted retries become a per-item
// failure; a usable reply is normalized with the submission's own name, never
// a model-asserted one.
func (g *Grader) GradeOne(ctx context.Context, sub Submission, rubric string) (result GradedResult) {
	defer func() {
		if r := recover(); r != nil {
			result = g.failure(sub.Name, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if g.maxFileBytes > 0 && sub.Size() > g.maxFileBytes {
		err := &OversizeError{Name: sub.Name, Size: sub.Size(), Limit: g.maxFileBytes}
		g.logger.Warn().Str("file", sub.Name).Int("size", sub.Size()).Msg("submission exceeds size ceiling")
		return g.failure(sub.Name, err.Error())
	}

	g.logger.Info().Str("file", sub.Name).Msg("grading submission")

	prompt := BuildPrompt(sub.Name, rubric)
	raw, err := g.scorer.Score(ctx, sub.Data, prompt)
	if err != nil {
		g.logger.Error().Err(err).Str("file", sub.Name).Msg("grading failed")
		return g.failure(sub.Name, err.Error())
	}

	feedback, row := Extract(raw, sub.Name)

	observability.Submissions().WithLabelValues("success").Inc()
	return GradedResult{
		Name:     sub.Name,
		Score:    row.Score,
		Comment:  row.Comment,
		Feedback: feedback,
	}
}

func (g *Grader) failure(name, message string) GradedResult {
	observability.Submissions().WithLabelValues("failure").Inc()
	return GradedResult{Name: name, Err: message}
}
