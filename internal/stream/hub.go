// Package stream distributes encoded frames from the detection loop to
// any number of HTTP viewers.
//
// The hub keeps only the latest frame: publishing never blocks and a slow
// viewer skips frames instead of queueing them.
package stream

import (
	"context"
	"sync"
)

// Hub is a single-slot, latest-frame-wins mailbox with broadcast wakeup.
type Hub struct {
	mu      sync.Mutex
	latest  []byte
	seq     uint64
	changed chan struct{}
	viewers int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{changed: make(chan struct{})}
}

// Publish replaces the current frame and wakes every waiting viewer.  The
// hub takes ownership of jpeg; callers must not modify it afterwards.
func (h *Hub) Publish(jpeg []byte) {
	h.mu.Lock()
	h.latest = jpeg
	h.seq++
	close(h.changed)
	h.changed = make(chan struct{})
	h.mu.Unlock()
}

// Next blocks until a frame newer than after is available and returns it
// with its sequence number.  Pass 0 to get the current frame, if any.
func (h *Hub) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		h.mu.Lock()
		if h.seq > after && h.latest != nil {
			b, s := h.latest, h.seq
			h.mu.Unlock()
			return b, s, nil
		}
		wait := h.changed
		h.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-wait:
		}
	}
}

// Viewers reports how many viewers are attached.  Sinks use it to skip
// encoding when nobody is watching.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

func (h *Hub) attach() func() {
	h.mu.Lock()
	h.viewers++
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		h.viewers--
		h.mu.Unlock()
	}
}
