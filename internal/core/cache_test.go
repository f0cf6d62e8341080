package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
)

func TestCacheReloadSwapsValue(t *testing.T) {
	items := []string{"a"}
	cache := NewCache(func(context.Context) ([]string, error) {
		return items, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if len(cache.Value()) != 0 {
		t.Fatal("cache must start empty")
	}
	cache.Reload(context.Background())
	if got := cache.Value(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected value after reload: %v", got)
	}
	gen := cache.Generation()

	items = []string{"a", "b"}
	cache.Reload(context.Background())
	if got := cache.Value(); len(got) != 2 {
		t.Fatalf("unexpected value after second reload: %v", got)
	}
	if cache.Generation() == gen {
		t.Fatal("successful reload must bump the generation")
	}
}

func TestCacheOverlappingReloads(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	cache := NewCache(func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	firstDone := make(chan struct{})
	go func() {
		cache.Reload(context.Background())
		close(firstDone)
	}()
	<-started

	cache.Reload(context.Background())
	if !cache.IsLoading() {
		t.Fatal("loading must stay set while the first fetch is still in flight")
	}
	if got := cache.Value(); len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("second reload must be visible immediately, got %v", got)
	}
	gen := cache.Generation()

	close(release)
	<-firstDone
	if cache.IsLoading() {
		t.Fatal("loading must clear once every fetch has returned")
	}
	if got := cache.Value(); len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("stale fetch must not overwrite the newer snapshot, got %v", got)
	}
	if cache.Generation() != gen {
		t.Fatal("discarded stale fetch must not bump the generation")
	}
}

func TestCacheRetainsValueOnFailure(t *testing.T) {
	fail := false
	cache := NewCache(func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("remote unavailable")
		}
		return []string{"a"}, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cache.Reload(context.Background())
	gen := cache.Generation()

	fail = true
	cache.Reload(context.Background())
	if got := cache.Value(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("failed reload must retain the previous value, got %v", got)
	}
	if cache.Generation() != gen {
		t.Fatal("failed reload must not bump the generation")
	}
	if cache.IsLoading() {
		t.Fatal("loading flag must clear after a failed reload")
	}
}
