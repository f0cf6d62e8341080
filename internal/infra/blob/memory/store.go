// Package memory holds export archives in process memory. Used by tests and
// by ephemeral deployments that do not need archives to survive a restart.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"clubcore/internal/infra/blob/core"
)

// Store keeps archives in a key-indexed map. Archives are immutable: a key
// can be written once and deleted, never overwritten.
type Store struct {
	mu       sync.RWMutex
	archives map[string]archive
}

type archive struct {
	info core.Info
	data []byte
}

// New returns an empty in-memory archive store.
func New() *Store {
	return &Store{archives: make(map[string]archive)}
}

// Driver identifies this backend.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores a new archive under key.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, fmt.Errorf("read archive %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.archives[key]; taken {
		return core.Info{}, fmt.Errorf("%s: %w", key, core.ErrExists)
	}
	info := core.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		Metadata:     maps.Clone(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.archives[key] = archive{info: info, data: data}
	return info, nil
}

// Get returns the archive metadata and its content.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	s.mu.RLock()
	stored, ok := s.archives[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, nil, fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	info := stored.info
	info.Metadata = maps.Clone(info.Metadata)
	return info, io.NopCloser(bytes.NewReader(append([]byte(nil), stored.data...))), nil
}

// Head returns the archive metadata without its content.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	s.mu.RLock()
	stored, ok := s.archives[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	info := stored.info
	info.Metadata = maps.Clone(info.Metadata)
	return info, nil
}

// Delete removes the archive, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.archives[key]; !ok {
		return false, nil
	}
	delete(s.archives, key)
	return true, nil
}

// List returns metadata for every archive under prefix, ordered by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Info
	for key, stored := range s.archives {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		info := stored.info
		info.Metadata = maps.Clone(info.Metadata)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL is unavailable for in-memory archives.
func (s *Store) PresignURL(context.Context, string, core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}
