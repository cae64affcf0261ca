package stream

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHub_LatestFrameWins(t *testing.T) {
	h := NewHub()
	h.Publish([]byte("one"))
	h.Publish([]byte("two"))

	b, seq, err := h.Next(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "two" || seq != 2 {
		t.Errorf("Next = %q/%d, want two/2", b, seq)
	}
}

func TestHub_NextBlocksUntilPublish(t *testing.T) {
	h := NewHub()
	h.Publish([]byte("a"))

	got := make(chan string, 1)
	go func() {
		b, _, err := h.Next(context.Background(), 1)
		if err == nil {
			got <- string(b)
		}
	}()

	select {
	case <-got:
		t.Fatal("Next returned before a newer frame")
	case <-time.After(20 * time.Millisecond):
	}
	h.Publish([]byte("b"))
	select {
	case s := <-got:
		if s != "b" {
			t.Errorf("frame = %q, want b", s)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not wake")
	}
}

func TestHub_NextHonoursContext(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := h.Next(ctx, 0); err == nil {
		t.Error("expected context error on empty hub")
	}
}

// ---------------------------------------------------------------------------
// MJPEG
// ---------------------------------------------------------------------------

type lockedBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	flushes int
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Flush() {
	b.mu.Lock()
	b.flushes++
	b.mu.Unlock()
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWriteMJPEG_Parts(t *testing.T) {
	h := NewHub()
	h.Publish([]byte("JPEG1"))

	w := &lockedBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WriteMJPEG(ctx, w, h, 0) }()

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(w.String(), "JPEG1") {
		if time.Now().After(deadline) {
			t.Fatal("first part not written")
		}
		time.Sleep(2 * time.Millisecond)
	}
	if h.Viewers() != 1 {
		t.Errorf("Viewers = %d, want 1", h.Viewers())
	}
	h.Publish([]byte("JPEG2"))
	for !strings.Contains(w.String(), "JPEG2") {
		if time.Now().After(deadline) {
			t.Fatal("second part not written")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("WriteMJPEG: %v", err)
	}

	out := w.String()
	if !strings.HasPrefix(out, "--frame\r\nContent-Type: image/jpeg\r\n") {
		t.Errorf("unexpected part header: %q", out[:40])
	}
	if strings.Count(out, "--frame\r\n") != 2 {
		t.Errorf("parts = %d, want 2", strings.Count(out, "--frame\r\n"))
	}
	if h.Viewers() != 0 {
		t.Errorf("Viewers after return = %d, want 0", h.Viewers())
	}
	if ContentType != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("ContentType = %q", ContentType)
	}
}
