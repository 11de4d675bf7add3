// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"sync"

	"github.com/hashicorp/tokenscope/backend"
)

// StateReader defines an interface for finding and reading a backend.State
// Implementations must be concurrently safe, since the reader will likely be
// used within a concurrent http.Handler
type StateReader interface {
	// Read an existing State entry.  The returned state's ID() must match
	// the stateID used to look it up.  A state that's not found is returned
	// as nil, ErrNotFound.
	Read(ctx context.Context, stateID string) (*backend.State, error)
}

// SingleStateReader implements the StateReader interface for a single state.
// It is concurrently safe.
type SingleStateReader struct {
	State *backend.State
}

// Read() will return it's single-state if the stateID matches it's ID(),
// otherwise it returns an error of ErrNotFound. It satisfies the
// StateReader interface.  Read() is concurrently safe.
func (s *SingleStateReader) Read(ctx context.Context, stateID string) (*backend.State, error) {
	if s.State == nil || s.State.ID() != stateID {
		return nil, ErrNotFound
	}
	return s.State, nil
}

// MapStateReader implements the StateReader interface for any number of
// in-flight sign in attempts.  The zero value is ready to use.
type MapStateReader struct {
	mu     sync.Mutex
	states map[string]*backend.State
}

// Add a state to the reader.
func (m *MapStateReader) Add(s *backend.State) {
	if s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = map[string]*backend.State{}
	}
	m.states[s.ID()] = s
}

// Read() returns the state with the stateID and removes it, so each state
// completes at most one sign in.  Expired states are pruned as a side effect.
func (m *MapStateReader) Read(ctx context.Context, stateID string) (*backend.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.states {
		if id != stateID && s.IsExpired() {
			delete(m.states, id)
		}
	}
	s, ok := m.states[stateID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.states, stateID)
	return s, nil
}
