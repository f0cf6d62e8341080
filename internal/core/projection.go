package core

import "sync"

// Projection is a named, lazily recomputed view over a cache. The visible
// subset is the conjunction of an optional view-specific base predicate and
// the shared filter state, memoized by (cache generation, filter generation)
// so repeated reads between changes cost nothing.
type Projection[E any] struct {
	name    string
	cache   *Cache[E]
	filters *FilterState
	base    func(E) bool
	match   func(E, *FilterState) bool

	mu        sync.Mutex
	memo      []E
	cacheGen  uint64
	filterGen uint64
	valid     bool
}

func newProjection[E any](name string, cache *Cache[E], filters *FilterState, base func(E) bool, match func(E, *FilterState) bool) *Projection[E] {
	return &Projection[E]{
		name:    name,
		cache:   cache,
		filters: filters,
		base:    base,
		match:   match,
	}
}

// Name returns the view name.
func (p *Projection[E]) Name() string { return p.name }

// Visible returns the entities matching the view predicate and every active
// filter. The result is recomputed only when the cache or filter state has
// changed since the last read. Callers must not mutate the returned slice.
func (p *Projection[E]) Visible() []E {
	cacheGen := p.cache.Generation()
	filterGen := p.filters.Generation()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.valid && p.cacheGen == cacheGen && p.filterGen == filterGen {
		return p.memo
	}

	source := p.cache.Value()
	visible := make([]E, 0, len(source))
	for _, e := range source {
		if p.base != nil && !p.base(e) {
			continue
		}
		if p.match != nil && !p.match(e, p.filters) {
			continue
		}
		visible = append(visible, e)
	}
	p.memo = visible
	p.cacheGen = cacheGen
	p.filterGen = filterGen
	p.valid = true
	return visible
}

// Count returns the number of visible entities.
func (p *Projection[E]) Count() int {
	return len(p.Visible())
}
