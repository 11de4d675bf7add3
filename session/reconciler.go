// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Handle is the part of a backend client the Reconciler depends on.
type Handle interface {
	// OnAuthStateChange registers fn for auth events and returns a func
	// which cancels the registration.  Once the cancel func returns, fn is
	// never called again.
	OnAuthStateChange(fn func(Event)) (unsubscribe func())

	// SignOut requests a sign out.  The resulting SignedOut event is
	// delivered asynchronously.
	SignOut(ctx context.Context) error
}

// State of a Reconciler
type State int

const (
	NoSession State = iota
	HasSession
)

func (s State) String() string {
	switch s {
	case HasSession:
		return "HasSession"
	default:
		return "NoSession"
	}
}

// Next is the Reconciler's transition function.  It returns the session
// after ev and whether ev caused a transition.
//
//   - SignedIn or TokenRefreshed with a session replaces the current session
//   - SignedOut clears it
//   - everything else is ignored
func Next(current *Session, ev Event) (*Session, bool) {
	switch ev.Kind {
	case SignedIn, TokenRefreshed:
		if ev.Session == nil {
			return current, false
		}
		return ev.Session, true
	case SignedOut:
		return nil, true
	default:
		return current, false
	}
}

// Reconciler derives a single "current session or none" value from a
// handle's auth events.  It's concurrently safe.
type Reconciler struct {
	logger   hclog.Logger
	onChange func(*Session)

	// attachMu serializes Attach and Close
	attachMu    sync.Mutex
	unsubscribe func()

	mu      sync.Mutex
	current *Session
	handle  Handle

	// pending transitions for onChange, in event order.  notifying is true
	// while a goroutine is draining them.
	pending   []*Session
	notifying bool
}

// NewReconciler creates a Reconciler in the NoSession state.
//
// Supported options: WithLogger, WithOnChange
func NewReconciler(opt ...Option) *Reconciler {
	opts := getReconcilerOpts(opt...)
	return &Reconciler{
		logger:   opts.withLogger.Named("reconciler"),
		onChange: opts.withOnChange,
	}
}

// Attach subscribes to h's auth events.  Attaching the handle that's already
// attached is a no-op.  Otherwise the previous subscription is cancelled
// before h (if not nil) is subscribed.  The current session is kept: only
// events change it.
func (r *Reconciler) Attach(h Handle) {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()
	r.mu.Lock()
	same := h != nil && h == r.handle
	r.mu.Unlock()
	if same {
		return
	}
	r.detach()
	if h == nil {
		return
	}
	r.unsubscribe = h.OnAuthStateChange(r.receive)
	r.mu.Lock()
	r.handle = h
	r.mu.Unlock()
	r.logger.Debug("subscribed to auth events")
}

// Close cancels the current subscription, if any.
func (r *Reconciler) Close() {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()
	r.detach()
}

// detach must be called with r.attachMu held and r.mu released, since
// unsubscribing waits for an in-flight receive.
func (r *Reconciler) detach() {
	r.mu.Lock()
	r.handle = nil
	r.mu.Unlock()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
		r.logger.Debug("unsubscribed from auth events")
	}
}

// receive is the subscription callback.  It must never call back into the
// handle's unsubscribe func, so onChange is called from notify instead.
func (r *Reconciler) receive(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, changed := Next(r.current, ev)
	if !changed {
		r.logger.Trace("ignoring auth event", "event", ev.Kind)
		return
	}
	r.current = next.Clone()
	r.logger.Debug("session transition", "event", ev.Kind, "state", stateOf(next))
	if r.onChange == nil {
		return
	}
	r.pending = append(r.pending, next.Clone())
	if !r.notifying {
		r.notifying = true
		go r.notify()
	}
}

// notify calls onChange for every pending transition with no locks held, so
// onChange may Attach or Close the reconciler.
func (r *Reconciler) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.pending) > 0 {
		s := r.pending[0]
		r.pending[0] = nil
		r.pending = r.pending[1:]
		r.mu.Unlock()
		r.callOnChange(s)
		r.mu.Lock()
	}
	r.pending = nil
	r.notifying = false
}

func (r *Reconciler) callOnChange(s *Session) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("session change func panicked", "panic", v)
		}
	}()
	r.onChange(s)
}

// Session returns a copy of the current session or nil when there isn't one.
func (r *Reconciler) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Clone()
}

// State returns the reconciler's current state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return stateOf(r.current)
}

// Logout asks the attached handle to sign out.  The reconciler doesn't
// transition until the handle emits SignedOut.
func (r *Reconciler) Logout(ctx context.Context) error {
	const op = "session.(Reconciler).Logout"
	r.mu.Lock()
	h := r.handle
	r.mu.Unlock()
	if h == nil {
		return fmt.Errorf("%s: %w", op, ErrNoHandle)
	}
	if err := h.SignOut(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func stateOf(s *Session) State {
	if s == nil {
		return NoSession
	}
	return HasSession
}
