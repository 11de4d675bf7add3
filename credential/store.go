// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package credential

import "sync"

// Store persists opaque string values under fixed keys.  Implementations
// never surface storage failures: a failed read is indistinguishable from a
// missing value and a failed write is dropped.  Implementations must be
// concurrently safe.
type Store interface {
	// Available reports whether durable storage exists in this execution
	// context.  When it doesn't, Read returns no value and Write is a no-op.
	Available() bool

	// Read returns the value stored for key.  The bool is false when no
	// value is present or storage is unavailable.
	Read(key string) (string, bool)

	// Write persists value under key unconditionally.
	Write(key, value string)
}

// MemStore is an in-memory Store.  It's concurrently safe.
type MemStore struct {
	mu sync.Mutex
	m  map[string]string
}

// ensure that MemStore implements the Store interface
var _ Store = (*MemStore)(nil)

// NewMemStore creates a MemStore seeded with an optional set of values.
func NewMemStore(seed map[string]string) *MemStore {
	m := make(map[string]string, len(seed))
	for k, v := range seed {
		m[k] = v
	}
	return &MemStore{m: m}
}

// Available is always true for a MemStore
func (s *MemStore) Available() bool { return true }

// Read implements the Store interface
func (s *MemStore) Read(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

// Write implements the Store interface
func (s *MemStore) Write(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]string{}
	}
	s.m[key] = value
}

// NopStore is the Store for execution contexts without durable storage.
type NopStore struct{}

// ensure that NopStore implements the Store interface
var _ Store = NopStore{}

// Available implements the Store interface
func (NopStore) Available() bool { return false }

// Read implements the Store interface
func (NopStore) Read(string) (string, bool) { return "", false }

// Write implements the Store interface
func (NopStore) Write(string, string) {}
