package core

import (
	"testing"
	"time"
)

func TestMatchIndex(t *testing.T) {
	cases := []struct {
		name  string
		index string
		term  string
		want  bool
	}{
		{"empty term matches", "alice smith", "", true},
		{"substring match", "alice smith", "ali", true},
		{"case insensitive", "alice smith", "ALICE", true},
		{"no match", "alice smith", "bob", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchIndex(tc.index, tc.term); got != tc.want {
				t.Fatalf("MatchIndex(%q, %q) = %v, want %v", tc.index, tc.term, got, tc.want)
			}
		})
	}
}

func TestMatchTag(t *testing.T) {
	cases := []struct {
		name      string
		tags      string
		criterion string
		want      bool
	}{
		{"sentinel all", "x,y", FilterAll, true},
		{"sentinel empty", "x,y", "", true},
		{"token present", "x,y", "y", true},
		{"token absent", "x,y", "z", false},
		{"no partial token match", "sailing", "sail", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchTag(tc.tags, tc.criterion); got != tc.want {
				t.Fatalf("MatchTag(%q, %q) = %v, want %v", tc.tags, tc.criterion, got, tc.want)
			}
		})
	}
}

func TestMatchCategory(t *testing.T) {
	if !MatchCategory("starter", FilterAll) {
		t.Fatal("sentinel criterion must match every category")
	}
	if !MatchCategory("starter", "starter") {
		t.Fatal("equal category must match")
	}
	if MatchCategory("starter", "dessert") {
		t.Fatal("different category must not match")
	}
}

func TestMatchYear(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !MatchYear(date, YearAll) {
		t.Fatal("YearAll must match every date")
	}
	if !MatchYear(date, 2024) {
		t.Fatal("matching year expected")
	}
	if MatchYear(date, 2023) {
		t.Fatal("non-matching year must not match")
	}
}

func TestFilterStateGeneration(t *testing.T) {
	f := NewFilterState()
	gen := f.Generation()

	f.SetSearch("ali")
	if f.Generation() == gen {
		t.Fatal("SetSearch must bump the generation")
	}
	gen = f.Generation()

	f.SetSearch("ali")
	if f.Generation() != gen {
		t.Fatal("setting the same value must not bump the generation")
	}

	f.SetTag("x")
	f.SetCategory("starter")
	f.SetYear(2024)
	gen = f.Generation()

	f.Reset()
	if f.Generation() == gen {
		t.Fatal("Reset must bump the generation")
	}
	if f.Search() != "" || f.Tag() != "" || f.Category() != "" || f.Year() != YearAll {
		t.Fatalf("Reset must neutralize every criterion, got %q %q %q %d", f.Search(), f.Tag(), f.Category(), f.Year())
	}
}
