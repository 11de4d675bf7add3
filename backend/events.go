// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/tokenscope/session"
)

// delivery is a queued event.  A zero to means every subscriber.
type delivery struct {
	ev session.Event
	to uint64
}

// dispatcher delivers events to subscribers in emission order on a single
// goroutine, which runs only while there's something queued.
type dispatcher struct {
	logger hclog.Logger

	mu       sync.Mutex
	idle     *sync.Cond // broadcast whenever inflight returns to zero
	subs     map[uint64]func(session.Event)
	nextID   uint64
	queue    []delivery
	running  bool
	inflight uint64 // id of the subscriber being called
}

func newDispatcher(logger hclog.Logger) *dispatcher {
	d := &dispatcher{
		logger: logger,
		subs:   map[uint64]func(session.Event){},
	}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// subscribe registers fn and queues initial for it alone.  The returned func
// removes fn and waits for any in-flight call to fn to return; it must not be
// called from within fn.
func (d *dispatcher) subscribe(fn func(session.Event), initial session.Event) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs[id] = fn
	d.enqueue(delivery{ev: initial, to: id})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subs, id)
			for d.inflight == id {
				d.idle.Wait()
			}
		})
	}
}

// emit queues ev for every current subscriber.  It never blocks on
// subscribers.
func (d *dispatcher) emit(ev session.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.subs) == 0 {
		d.logger.Trace("no subscribers, dropping event", "event", ev.Kind)
		return
	}
	d.enqueue(delivery{ev: ev})
}

// enqueue must be called with d.mu held.
func (d *dispatcher) enqueue(dl delivery) {
	d.queue = append(d.queue, dl)
	if !d.running {
		d.running = true
		go d.run()
	}
}

func (d *dispatcher) subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

func (d *dispatcher) run() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) > 0 {
		dl := d.queue[0]
		d.queue[0] = delivery{}
		d.queue = d.queue[1:]

		var ids []uint64
		if dl.to != 0 {
			ids = []uint64{dl.to}
		} else {
			ids = make([]uint64, 0, len(d.subs))
			for id := range d.subs {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		}
		for _, id := range ids {
			fn, ok := d.subs[id]
			if !ok {
				// unsubscribed since the event was queued
				continue
			}
			d.inflight = id
			d.mu.Unlock()
			d.call(fn, session.Event{Kind: dl.ev.Kind, Session: dl.ev.Session.Clone()})
			d.mu.Lock()
			d.inflight = 0
			d.idle.Broadcast()
		}
	}
	d.queue = nil
	d.running = false
}

func (d *dispatcher) call(fn func(session.Event), ev session.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("auth event subscriber panicked", "event", ev.Kind, "panic", r)
		}
	}()
	fn(ev)
}
