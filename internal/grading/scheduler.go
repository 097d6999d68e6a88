package grading

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers caps concurrent in-flight scoring calls regardless of
// batch size.
const DefaultWorkers = 4

// Scheduler runs the grader over a batch with bounded parallelism and
// returns results in canonical order.
type Scheduler struct {
	grader  *Grader
	workers int
	logger  zerolog.Logger
}

// NewScheduler builds a scheduler with the given concurrency ceiling.
func NewScheduler(grader *Grader, workers int, logger zerolog.Logger) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scheduler{grader: grader, workers: workers, logger: logger}
}

// Run grades every submission and returns exactly one result per
// submission, sorted lexicographically by name so output order is
// independent of completion timing. A single submission runs synchronously.
// Cancelling ctx makes remaining work fail fast as per-item failures; the
// call still blocks until every submission has a result.
func (s *Scheduler) Run(ctx context.Context, subs []Submission, rubric string) []GradedResult {
	if len(subs) == 0 {
		return nil
	}
	if len(subs) == 1 {
		return []GradedResult{s.grader.GradeOne(ctx, subs[0], rubric)}
	}

	results := make([]GradedResult, len(subs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, sub := range subs {
		g.Go(func() error {
			// Workers never write shared structures; each owns one slot.
			results[i] = s.grader.GradeOne(ctx, sub, rubric)
			return nil
		})
	}
	// GradeOne never returns an error, so Wait only synchronizes.
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})

	s.logger.Info().Int("submissions", len(subs)).Msg("batch complete")
	return results
}
