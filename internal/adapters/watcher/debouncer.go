// Package watcher implements file system watching for rebuild-on-change.
package watcher

import (
	"cmp"
	"slices"
	"sync"
	"time"
	"unique"

	"go.trai.ch/forge/internal/core/ports"
)

// Debouncer coalesces rapid file system events into batches.
type Debouncer struct {
	mu       sync.Mutex
	emitting chan struct{}
	pending  map[unique.Handle[string]]ports.WatchEvent
	timer    *time.Timer
	window   time.Duration
	callback func(events []ports.WatchEvent)
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(events []ports.WatchEvent)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]ports.WatchEvent),
		emitting: make(chan struct{}, 1),
		window:   window,
		callback: callback,
	}
}

// Add records an event. A later event for the same path replaces the earlier one.
func (d *Debouncer) Add(event ports.WatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[unique.Make(event.Path)] = event

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// fire is called when the debounce window expires.
// Batches reach the callback one at a time, in the order they were drained.
func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	events := d.drain()
	d.emitting <- struct{}{}
	d.mu.Unlock()
	defer func() { <-d.emitting }()

	if len(events) > 0 && d.callback != nil {
		d.callback(events)
	}
}

// Flush immediately hands all pending events to the callback and waits for it to return.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Already fired.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	events := d.drain()
	d.emitting <- struct{}{}
	d.mu.Unlock()
	defer func() { <-d.emitting }()

	if len(events) > 0 && d.callback != nil {
		d.callback(events)
	}
}

// drain empties the pending set. d.mu must be held.
func (d *Debouncer) drain() []ports.WatchEvent {
	if len(d.pending) == 0 {
		return nil
	}
	events := make([]ports.WatchEvent, 0, len(d.pending))
	for _, event := range d.pending {
		events = append(events, event)
	}
	slices.SortFunc(events, func(a, b ports.WatchEvent) int {
		return cmp.Compare(a.Path, b.Path)
	})
	d.pending = make(map[unique.Handle[string]]ports.WatchEvent)
	return events
}
