package indexer

import (
	"sync"
	"time"
)

// Debouncer delays per-note work until a quiet period has elapsed.
// Retriggering a note id cancels and replaces its pending timer, so a
// burst of modifications runs the work once. Failures inside fn are the
// callback's business; no caller is waiting.
type Debouncer struct {
	delay time.Duration
	fn    func(noteID string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer invoking fn after the delay.
func NewDebouncer(delay time.Duration, fn func(noteID string)) *Debouncer {
	return &Debouncer{
		delay:  delay,
		fn:     fn,
		timers: make(map[string]*time.Timer),
	}
}

// Trigger (re)starts the timer for a note id.
func (d *Debouncer) Trigger(noteID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.timers[noteID]; ok {
		t.Stop()
	}
	d.timers[noteID] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, noteID)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.fn(noteID)
		}
	})
}

// Cancel drops any pending timer for a note id.
func (d *Debouncer) Cancel(noteID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[noteID]; ok {
		t.Stop()
		delete(d.timers, noteID)
	}
}

// Stop cancels all pending timers. Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}
