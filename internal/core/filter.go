package core

import (
	"strings"
	"sync"
	"time"

	"clubcore/pkg/domain"
)

// FilterAll is the sentinel criterion meaning "do not filter". The empty
// string is treated the same way.
const FilterAll = "all"

// YearAll is the sentinel year meaning "every year".
const YearAll = 0

func isSentinel(criterion string) bool {
	return criterion == "" || criterion == FilterAll
}

// MatchIndex reports whether the search term occurs in the record index,
// case-insensitively. An empty term matches everything.
func MatchIndex(index, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(index), strings.ToLower(term))
}

// MatchTag reports whether the delimited tag string contains the criterion as
// a whole token. The sentinel criterion matches everything.
func MatchTag(tags, criterion string) bool {
	if isSentinel(criterion) {
		return true
	}
	return domain.HasTag(tags, criterion)
}

// MatchCategory reports whether the record category equals the criterion. The
// sentinel criterion matches everything.
func MatchCategory(category, criterion string) bool {
	if isSentinel(criterion) {
		return true
	}
	return category == criterion
}

// MatchYear reports whether the year component of the date equals the
// criterion. YearAll matches everything.
func MatchYear(date time.Time, criterion int) bool {
	if criterion == YearAll {
		return true
	}
	return date.Year() == criterion
}

// FilterState holds the ephemeral filter criteria of one controller instance.
// Every mutation bumps the generation counter so projections can detect
// staleness without observers.
type FilterState struct {
	mu       sync.Mutex
	search   string
	tag      string
	category string
	year     int
	gen      uint64
}

// NewFilterState returns a filter state with every criterion neutral.
func NewFilterState() *FilterState {
	return &FilterState{}
}

// Generation returns a counter incremented on every criterion change.
func (f *FilterState) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

// SetSearch sets the substring search term.
func (f *FilterState) SetSearch(term string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.search == term {
		return
	}
	f.search = term
	f.gen++
}

// Search returns the current search term.
func (f *FilterState) Search() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.search
}

// SetTag sets the selected tag criterion.
func (f *FilterState) SetTag(tag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tag == tag {
		return
	}
	f.tag = tag
	f.gen++
}

// Tag returns the selected tag criterion.
func (f *FilterState) Tag() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tag
}

// SetCategory sets the selected category criterion.
func (f *FilterState) SetCategory(category string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.category == category {
		return
	}
	f.category = category
	f.gen++
}

// Category returns the selected category criterion.
func (f *FilterState) Category() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.category
}

// SetYear sets the selected year criterion. YearAll disables year filtering.
func (f *FilterState) SetYear(year int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.year == year {
		return
	}
	f.year = year
	f.gen++
}

// Year returns the selected year criterion.
func (f *FilterState) Year() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.year
}

// Reset returns every criterion to its neutral sentinel.
func (f *FilterState) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.search == "" && f.tag == "" && f.category == "" && f.year == YearAll {
		return
	}
	f.search = ""
	f.tag = ""
	f.category = ""
	f.year = YearAll
	f.gen++
}
