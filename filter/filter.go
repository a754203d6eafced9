package filter

import (
	"context"

	"github.com/s0up4200/filmpire/tmdb"
)

// CompileFilter compiles expression with the default compiler settings
func CompileFilter(expression string, opts ...ExprCompilerOption) (CompiledFilter, error) {
	return NewExprCompiler(opts...).Compile(expression)
}

// ApplyToPage returns a copy of page holding only the movies that match.
// Pagination fields are kept so callers can still page through upstream.
func ApplyToPage(ctx context.Context, f CompiledFilter, page *tmdb.MoviePage) (*tmdb.MoviePage, error) {
	matches, err := NewConcurrentEvaluator().Evaluate(ctx, f, page.Results)
	if err != nil {
		return nil, err
	}
	filtered := *page
	filtered.Results = matches
	return &filtered, nil
}
