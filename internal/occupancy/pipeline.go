package occupancy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Frame is an image owned by the loop for one iteration.
type Frame interface {
	Close() error
}

// Source yields frames forever, rewinding at end of stream.  Read returns
// an error only when no frame can be produced at all.
type Source interface {
	Read(ctx context.Context) (Frame, error)
}

// Counter returns the non-zero pixel count of every rectangle, in order,
// after preprocessing the frame.
type Counter interface {
	Count(f Frame, geoms []Geometry) ([]int, error)
}

// SpotView is what the renderer needs to draw one spot.
type SpotView struct {
	Entry
	Count   int
	Display Display
}

// Renderer annotates f in place.
type Renderer interface {
	Render(f Frame, views []SpotView, free, total int) error
}

// Sink receives the annotated frame.  Returning ErrStop ends the loop
// cleanly.
type Sink interface {
	Emit(ctx context.Context, f Frame) error
}

// ErrStop is returned by a Sink to request shutdown (quit key pressed).
var ErrStop = errors.New("stop requested")

// Ticker paces the loop.  time.Ticker is wrapped by NewTimeTicker; tests
// supply their own.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker returns a Ticker firing fps times per second, or nil for
// fps <= 0 (unpaced).
func NewTimeTicker(fps int) Ticker {
	if fps <= 0 {
		return nil
	}
	return timeTicker{t: time.NewTicker(time.Second / time.Duration(fps))}
}

// Pipeline is the single-goroutine detection loop:
// read, count, decide, reconcile, render, emit.
type Pipeline struct {
	Source     Source
	Counter    Counter
	Reconciler *Reconciler
	Renderer   Renderer
	Sink       Sink
	Map        SpotMap

	// Threshold is the pixel count at or above which a spot is occupied.
	Threshold int
	// Ticker paces iterations; nil runs as fast as the sink allows.
	Ticker Ticker
	// MaxFrames stops the loop after that many frames; 0 means forever.
	MaxFrames int
}

// Run executes the loop until ctx is cancelled, the sink returns ErrStop,
// MaxFrames is reached or the source fails.  Cancellation returns nil even
// when it interrupts a read.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.Ticker != nil {
		defer p.Ticker.Stop()
	}
	geoms := p.Map.Geometries()
	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		stop, err := p.step(ctx, geoms)
		if err != nil {
			// a source interrupted by shutdown is a clean stop
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}
		if stop {
			return nil
		}
		frames++
		if p.MaxFrames > 0 && frames >= p.MaxFrames {
			return nil
		}
		if p.Ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-p.Ticker.C():
			}
		}
	}
}

func (p *Pipeline) step(ctx context.Context, geoms []Geometry) (bool, error) {
	f, err := p.Source.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("read frame: %w", err)
	}
	defer f.Close()

	counts, err := p.Counter.Count(f, geoms)
	if err != nil {
		return false, fmt.Errorf("count pixels: %w", err)
	}
	views, free := p.Evaluate(ctx, counts)
	if err := p.Renderer.Render(f, views, free, p.Map.Len()); err != nil {
		log.Printf("occupancy: render: %v", err)
	}
	if err := p.Sink.Emit(ctx, f); err != nil {
		if errors.Is(err, ErrStop) {
			return true, nil
		}
		log.Printf("occupancy: emit: %v", err)
	}
	return false, nil
}

// Evaluate decides and reconciles every mapped entry for one frame's
// counts and returns the views to draw plus the number of free spots.
// Unmapped entries are drawn but never reconciled or counted.
func (p *Pipeline) Evaluate(ctx context.Context, counts []int) ([]SpotView, int) {
	views := make([]SpotView, p.Map.Len())
	free := 0
	for i := 0; i < p.Map.Len(); i++ {
		e := p.Map.At(i)
		v := SpotView{Entry: e, Display: DisplayUnmapped}
		if i < len(counts) {
			v.Count = counts[i]
		}
		if e.Mapped {
			out := p.Reconciler.Reconcile(ctx, e.Label, Decide(v.Count, p.Threshold))
			v.Display = out.Display
			if v.Display == DisplayFree {
				free++
			}
		}
		views[i] = v
	}
	return views, free
}
