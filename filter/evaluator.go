package filter

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/filmpire/tmdb"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the maximum number of concurrent evaluations
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the chunk size; shorter inputs are evaluated inline
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator implements both Evaluator and BatchEvaluator interfaces
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate evaluates a single filter against all movies
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	if len(movies) == 0 {
		return []tmdb.Movie{}, nil
	}

	// A page of results is far below the batch size
	if len(movies) < e.batchSize {
		return evaluateSequential(filter, movies), nil
	}

	return e.evaluateConcurrent(ctx, filter, movies)
}

// EvaluateBatch evaluates multiple filters against movies concurrently.
// Filters that fail are left out of the result.
func (e *ConcurrentEvaluator) EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, movies []tmdb.Movie) (map[string][]tmdb.Movie, error) {
	results := make(map[string][]tmdb.Movie, len(filters))
	if len(filters) == 0 || len(movies) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for name, filter := range filters {
		g.Go(func() error {
			matches, err := e.Evaluate(gctx, filter, movies)
			if err != nil {
				return nil
			}
			mu.Lock()
			results[name] = matches
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluateSequential(filter CompiledFilter, movies []tmdb.Movie) []tmdb.Movie {
	matches := make([]tmdb.Movie, 0, len(movies))
	for _, movie := range movies {
		if filter.Evaluate(movie) {
			matches = append(matches, movie)
		}
	}
	return matches
}

// evaluateConcurrent splits movies into chunks and keeps chunk order in the output
func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	chunkSize := max(len(movies)/e.workerCount, e.batchSize)
	chunks := (len(movies) + chunkSize - 1) / chunkSize
	results := make([][]tmdb.Movie, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(movies))

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateSequential(filter, movies[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	matches := make([]tmdb.Movie, 0, total)
	for _, r := range results {
		matches = append(matches, r...)
	}
	return matches, nil
}
