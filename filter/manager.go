package filter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/s0up4200/filmpire/tmdb"
)

// Manager holds named filters, e.g. the presets from the config file.
// Names are case-insensitive.
type Manager struct {
	compiler  Compiler
	evaluator *ConcurrentEvaluator

	mu      sync.RWMutex
	filters map[string]CompiledFilter
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		compiler:  NewExprCompiler(WithCache(100)),
		evaluator: NewConcurrentEvaluator(),
		filters:   make(map[string]CompiledFilter),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RegisterFilters compiles and registers every named expression. Nothing is
// registered if one of them fails to compile.
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]CompiledFilter, len(filters))

	for name, expr := range filters {
		f, err := m.compiler.Compile(expr)
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[strings.ToLower(name)] = f
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()

	return nil
}

// GetFilter returns a compiled filter by name
func (m *Manager) GetFilter(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.filters[strings.ToLower(name)]
	return f, ok
}

// ListFilters returns all registered filter names, sorted
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.filters))
}

// EvaluateFilter runs the named filter over movies, keeping their order
func (m *Manager) EvaluateFilter(ctx context.Context, name string, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	f, ok := m.GetFilter(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownFilter, name)
	}

	return m.evaluator.Evaluate(ctx, f, movies)
}

// ApplyToPage narrows page to the movies matching the named filter
func (m *Manager) ApplyToPage(ctx context.Context, name string, page *tmdb.MoviePage) (*tmdb.MoviePage, error) {
	matches, err := m.EvaluateFilter(ctx, name, page.Results)
	if err != nil {
		return nil, err
	}
	filtered := *page
	filtered.Results = matches
	return &filtered, nil
}

// EvaluateAll evaluates all registered filters
func (m *Manager) EvaluateAll(ctx context.Context, movies []tmdb.Movie) (map[string][]tmdb.Movie, error) {
	m.mu.RLock()
	filters := maps.Clone(m.filters)
	m.mu.RUnlock()

	return m.evaluator.EvaluateBatch(ctx, filters, movies)
}
