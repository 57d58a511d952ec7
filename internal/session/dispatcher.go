package session

import (
	"sync"
	"time"
)

// DispatchInterval is the minimum spacing between streaming dispatches.
const DispatchInterval = 1000 * time.Millisecond

type dispatchState int

const (
	dispatchIdle dispatchState = iota
	dispatchInFlight
)

// ChunkDispatcher drains the rolling buffer on a fixed cadence and submits
// the concatenated block to the streaming recognizer. Submission is
// single-flight: while a block is outstanding, ticks are ignored and new
// frames simply keep accumulating in the rolling buffer.
type ChunkDispatcher struct {
	buffer   *SessionBuffer
	interval time.Duration
	submit   func(block []float32) error
	onError  func(err error)

	mu       sync.Mutex
	state    dispatchState
	lastSent time.Time
}

// NewChunkDispatcher wires a dispatcher to a buffer. submit is invoked on
// its own goroutine per block; submit errors go to onError and do not stop
// subsequent dispatches.
func NewChunkDispatcher(buffer *SessionBuffer, interval time.Duration, submit func(block []float32) error, onError func(err error)) *ChunkDispatcher {
	if interval <= 0 {
		interval = DispatchInterval
	}
	return &ChunkDispatcher{
		buffer:   buffer,
		interval: interval,
		submit:   submit,
		onError:  onError,
	}
}

// Tick evaluates the dispatch condition at the given time. A dispatch is
// issued when the dispatcher is idle, the interval has elapsed since the
// previous dispatch, and the rolling buffer is non-empty.
func (d *ChunkDispatcher) Tick(now time.Time) {
	d.mu.Lock()
	if d.lastSent.IsZero() {
		// First tick anchors the cadence; the first dispatch happens one
		// interval later.
		d.lastSent = now
		d.mu.Unlock()
		return
	}
	if d.state != dispatchIdle || now.Sub(d.lastSent) < d.interval {
		d.mu.Unlock()
		return
	}

	block := d.buffer.DrainRolling()
	if block == nil {
		d.mu.Unlock()
		return
	}

	d.state = dispatchInFlight
	d.lastSent = now
	d.mu.Unlock()

	go func() {
		if err := d.submit(block); err != nil && d.onError != nil {
			d.onError(err)
		}
		d.mu.Lock()
		d.state = dispatchIdle
		d.mu.Unlock()
	}()
}

// InFlight reports whether a submission is currently outstanding.
func (d *ChunkDispatcher) InFlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == dispatchInFlight
}
