package daemon

import (
	"sync/atomic"

	"github.com/cornelk/hashmap"
)

// Accumulator counter names used by the default dispatcher.
const (
	StatMessages = "messages"
	StatBytesIn  = "bytes_in"
	StatBytesOut = "bytes_out"
	StatIdle     = "idle"
	StatErrors   = "errors"
)

// StatusAccumulator aggregates passthrough statistics. The serve loop
// writes it from the background task while status() reads it from the
// foreground thread, so the counters live in a lock-free map of atomics.
type StatusAccumulator struct {
	counters *hashmap.Map[string, *atomic.Uint64]
}

// NewStatusAccumulator returns an empty accumulator.
func NewStatusAccumulator() *StatusAccumulator {
	return &StatusAccumulator{counters: hashmap.New[string, *atomic.Uint64]()}
}

// Add bumps the named counter by delta.
func (a *StatusAccumulator) Add(name string, delta uint64) {
	if c, ok := a.counters.Get(name); ok {
		c.Add(delta)
		return
	}
	c := &atomic.Uint64{}
	actual, _ := a.counters.GetOrInsert(name, c)
	actual.Add(delta)
}

// Get returns the named counter's value (0 if never bumped).
func (a *StatusAccumulator) Get(name string) uint64 {
	if c, ok := a.counters.Get(name); ok {
		return c.Load()
	}
	return 0
}

// Snapshot copies all counters. Nil when nothing was counted, so an
// idle status report stays compact.
func (a *StatusAccumulator) Snapshot() map[string]uint64 {
	var out map[string]uint64
	a.counters.Range(func(name string, c *atomic.Uint64) bool {
		if out == nil {
			out = make(map[string]uint64)
		}
		out[name] = c.Load()
		return true
	})
	return out
}

// WriteState carries a partially flushed outbound payload between
// passthrough steps, so a timeout mid-write resumes instead of
// duplicating bytes.
type WriteState struct {
	pending []byte
	offset  int
}

// Queue schedules p for transmission. Any previous remainder is kept
// ahead of it.
func (w *WriteState) Queue(p []byte) {
	if len(p) == 0 {
		return
	}
	w.pending = append(w.pending[w.offset:], p...)
	w.offset = 0
}

// Remaining returns the unsent portion of the queued payload.
func (w *WriteState) Remaining() []byte {
	return w.pending[w.offset:]
}

// Advance marks n bytes as sent.
func (w *WriteState) Advance(n int) {
	w.offset += n
	if w.offset >= len(w.pending) {
		w.pending = w.pending[:0]
		w.offset = 0
	}
}
