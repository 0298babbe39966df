package source

import (
	"context"
	"sort"
	"sync"

	"github.com/ppiankov/parcelscore/internal/model"
)

// Query is what every adapter receives for one location
type Query struct {
	Lat      float64
	Lng      float64
	Address  string
	FIPSCode string
	Radius   int // meters
}

// Adapter fetches the record of one category for a location
type Adapter interface {
	// Category returns the category this adapter serves
	Category() model.Category

	// Fetch returns the category's record or an error. It must honor ctx.
	Fetch(ctx context.Context, q Query) (model.Record, error)
}

// FuncAdapter adapts a plain function to the Adapter interface
type FuncAdapter struct {
	category model.Category
	fetch    func(ctx context.Context, q Query) (model.Record, error)
}

// NewFuncAdapter creates an adapter backed by fn
func NewFuncAdapter(category model.Category, fn func(ctx context.Context, q Query) (model.Record, error)) *FuncAdapter {
	return &FuncAdapter{category: category, fetch: fn}
}

// Category implements Adapter
func (a *FuncAdapter) Category() model.Category { return a.category }

// Fetch implements Adapter
func (a *FuncAdapter) Fetch(ctx context.Context, q Query) (model.Record, error) {
	return a.fetch(ctx, q)
}

// Registry maps categories to adapters. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.Category]Adapter
}

// NewRegistry creates a registry holding the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[model.Category]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter, replacing any previous one for its category
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Category()] = adapter
}

// Lookup returns the adapter registered for a category
func (r *Registry) Lookup(c model.Category) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[c]
	return a, ok
}

// Categories returns the registered categories, known ones first in
// canonical order, then any others alphabetically
func (r *Registry) Categories() []model.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Category, 0, len(r.adapters))
	known := make(map[model.Category]bool)
	for _, c := range model.AllCategories() {
		known[c] = true
		if _, ok := r.adapters[c]; ok {
			out = append(out, c)
		}
	}

	var extra []model.Category
	for c := range r.adapters {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(out, extra...)
}

// Len returns the number of registered adapters
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
