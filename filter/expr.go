package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/filmpire/tmdb"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	genres     []tmdb.Genre
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache, _ = newCompiledCache(size)
		}
	}
}

// WithGenres lets expressions refer to genres by name, e.g. hasGenre("Drama")
func WithGenres(genres []tmdb.Genre) ExprCompilerOption {
	return func(c *exprCompiler) {
		c.genres = slices.Clone(genres)
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	genres      []tmdb.Genre
	cache       *compiledCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(), // movie fields are bound at run time
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		genres:     c.genres,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate reports whether the movie matches; evaluation errors count as no match
func (f *exprFilter) Evaluate(movie tmdb.Movie) bool {
	ok, err := f.Match(movie)
	return err == nil && ok
}

// Match runs the program against the movie
func (f *exprFilter) Match(movie tmdb.Movie) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(movie, f.genres))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			MovieID:    movie.ID,
			MovieTitle: movie.Title,
			Err:        err,
		}
	}

	// AsBool at compile time guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	// placeholders so calls type-check; replaced per movie at run time
	funcs["hasGenre"] = func(any) bool { return false }
	funcs["releasedAfter"] = func(time.Time) bool { return false }
	funcs["releasedBefore"] = func(time.Time) bool { return false }
	return funcs
}

// addHelperFunctions adds all helper functions to the provided map
func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["now"] = time.Now
}

// createRuntimeEnvironment binds one movie's fields and helpers
func createRuntimeEnvironment(movie tmdb.Movie, genres []tmdb.Genre) map[string]any {
	env := make(map[string]any, 40)
	addHelperFunctions(env)

	released := movie.Released()

	env["Movie"] = movie
	env["ID"] = movie.ID
	env["Title"] = movie.Title
	env["OriginalTitle"] = movie.OriginalTitle
	env["Language"] = movie.OriginalLanguage
	env["Overview"] = movie.Overview
	env["Year"] = movie.Year()
	env["ReleaseDate"] = movie.ReleaseDate
	env["Released"] = released
	env["Popularity"] = movie.Popularity
	env["Rating"] = movie.VoteAverage
	env["VoteAverage"] = movie.VoteAverage
	env["VoteCount"] = movie.VoteCount
	env["Adult"] = movie.Adult
	env["GenreIDs"] = movie.GenreIDs
	env["Genres"] = genreNames(movie, genres)

	env["hasGenre"] = createHasGenreFunc(movie, genres)
	env["releasedAfter"] = func(t time.Time) bool {
		return !released.IsZero() && released.After(t)
	}
	env["releasedBefore"] = func(t time.Time) bool {
		return !released.IsZero() && released.Before(t)
	}

	return env
}

// createHasGenreFunc accepts a genre id or a (fuzzy) genre name
func createHasGenreFunc(movie tmdb.Movie, genres []tmdb.Genre) func(any) bool {
	return func(v any) bool {
		switch g := v.(type) {
		case int:
			return movie.HasGenre(g)
		case int64:
			return movie.HasGenre(int(g))
		case float64:
			return movie.HasGenre(int(g))
		case string:
			match, ok := tmdb.MatchGenre(genres, g)
			return ok && movie.HasGenre(match.ID)
		}
		return false
	}
}

func genreNames(movie tmdb.Movie, genres []tmdb.Genre) []string {
	names := make([]string, 0, len(movie.GenreIDs))
	for _, g := range genres {
		if movie.HasGenre(g.ID) {
			names = append(names, g.Name)
		}
	}
	return names
}
