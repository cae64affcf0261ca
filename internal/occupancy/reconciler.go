package occupancy

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/parkease/internal/model"
)

// SpotStore is the slice of persistence the detection loop needs.
// repository.SpotRepo satisfies it.
type SpotStore interface {
	GetSpotByLabel(ctx context.Context, label string) (model.Spot, error)
	UpdateDetectedStatus(ctx context.Context, label string, d model.Decision) error
}

// ArrivalRecorder is told when a car is first seen on a reserved spot.
// repository.BookingRepo satisfies it.
type ArrivalRecorder interface {
	MarkArrived(ctx context.Context, label string) error
}

// Display is how a spot is drawn on the overlay.
type Display uint8

const (
	DisplayFree Display = iota
	DisplayOccupied
	DisplayReserved
	DisplayUnmapped
)

func (d Display) String() string {
	switch d {
	case DisplayFree:
		return "free"
	case DisplayOccupied:
		return "occupied"
	case DisplayReserved:
		return "reserved"
	}
	return "unmapped"
}

// Decide classifies a non-zero pixel count: free iff count < threshold.
func Decide(count, threshold int) model.Decision {
	if count < threshold {
		return model.DecisionFree
	}
	return model.DecisionOccupied
}

// Outcome reports what the reconciler did for one spot in one frame.
type Outcome struct {
	Label   string
	Display Display
	Wrote   bool  // a status write was issued and succeeded
	Err     error // read or write failure, already logged
}

// Reconciler merges classifier decisions with persisted status.
//
// A reserved spot ignores the classifier.  Otherwise free maps to
// available and occupied to occupied, and the store is written only when
// that target differs from the persisted status.  Store failures are
// logged and reported in the Outcome; the next frame retries naturally.
//
// When Arrivals is set, the first occupied decision on a reserved spot is
// reported to it once per reservation.  A Reconciler is driven by a single
// loop and is not safe for concurrent use.
type Reconciler struct {
	store   SpotStore
	timeout time.Duration

	Arrivals ArrivalRecorder
	arrived  map[string]bool
}

// NewReconciler returns a Reconciler.  A positive timeout bounds each
// store call.
func NewReconciler(store SpotStore, timeout time.Duration) *Reconciler {
	return &Reconciler{store: store, timeout: timeout}
}

func (r *Reconciler) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

// Reconcile applies decision d to the spot labelled label.
func (r *Reconciler) Reconcile(ctx context.Context, label string, d model.Decision) Outcome {
	out := Outcome{Label: label, Display: displayFor(d)}

	cctx, cancel := r.callCtx(ctx)
	spot, err := r.store.GetSpotByLabel(cctx, label)
	cancel()
	if err != nil {
		log.Printf("occupancy: read %s: %v", label, err)
		out.Err = err
		return out
	}

	next, err := model.Transition(spot.Status, d.Event())
	if err != nil {
		// detection events are legal from every status
		log.Printf("occupancy: %s: %v", label, err)
		out.Err = err
		return out
	}
	if next == model.StatusReserved {
		out.Display = DisplayReserved
		if d == model.DecisionOccupied {
			r.recordArrival(ctx, label)
		}
		return out
	}
	delete(r.arrived, label)
	if next == spot.Status {
		return out
	}

	cctx, cancel = r.callCtx(ctx)
	err = r.store.UpdateDetectedStatus(cctx, label, d)
	cancel()
	if err != nil {
		log.Printf("occupancy: write %s -> %s: %v", label, next, err)
		out.Err = err
		return out
	}
	out.Wrote = true
	return out
}

func (r *Reconciler) recordArrival(ctx context.Context, label string) {
	if r.Arrivals == nil || r.arrived[label] {
		return
	}
	cctx, cancel := r.callCtx(ctx)
	err := r.Arrivals.MarkArrived(cctx, label)
	cancel()
	if err != nil {
		log.Printf("occupancy: arrival %s: %v", label, err)
		return
	}
	if r.arrived == nil {
		r.arrived = make(map[string]bool)
	}
	r.arrived[label] = true
}

func displayFor(d model.Decision) Display {
	if d == model.DecisionOccupied {
		return DisplayOccupied
	}
	return DisplayFree
}
