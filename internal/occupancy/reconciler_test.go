package occupancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/parkease/internal/model"
)

// ---------------------------------------------------------------------------
// memStore
// ---------------------------------------------------------------------------

type write struct {
	label  string
	status model.SpotStatus
}

type memStore struct {
	spots    map[string]model.SpotStatus
	writes   []write
	readErr  error
	writeErr error
}

func newMemStore(spots map[string]model.SpotStatus) *memStore {
	return &memStore{spots: spots}
}

func (m *memStore) GetSpotByLabel(_ context.Context, label string) (model.Spot, error) {
	if m.readErr != nil {
		return model.Spot{}, m.readErr
	}
	st, ok := m.spots[label]
	if !ok {
		return model.Spot{}, errors.New("not found")
	}
	return model.Spot{Label: label, Status: st}, nil
}

func (m *memStore) UpdateDetectedStatus(_ context.Context, label string, d model.Decision) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.spots[label] == model.StatusReserved {
		return nil
	}
	m.spots[label] = d.Target()
	m.writes = append(m.writes, write{label, d.Target()})
	return nil
}

// book and cancel mimic the booking service's transitions.
func (m *memStore) book(label string) {
	next, err := model.Transition(m.spots[label], model.EventBooked)
	if err == nil {
		m.spots[label] = next
	}
}

func (m *memStore) cancel(label string) {
	next, err := model.Transition(m.spots[label], model.EventCancelled)
	if err == nil {
		m.spots[label] = next
	}
}

const threshold = 900

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestReconcile_FreeCountOnAvailableSpotWritesNothing(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	r := NewReconciler(store, time.Second)

	out := r.Reconcile(context.Background(), "A1", Decide(500, threshold))

	if len(store.writes) != 0 {
		t.Errorf("writes = %v, want none", store.writes)
	}
	if out.Display != DisplayFree {
		t.Errorf("display = %s, want free", out.Display)
	}
}

func TestReconcile_OccupiedCountWritesOnce(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	r := NewReconciler(store, time.Second)

	out := r.Reconcile(context.Background(), "A1", Decide(1200, threshold))

	if len(store.writes) != 1 || store.writes[0] != (write{"A1", model.StatusOccupied}) {
		t.Fatalf("writes = %v, want one occupied write", store.writes)
	}
	if !out.Wrote || out.Display != DisplayOccupied {
		t.Errorf("outcome = %+v", out)
	}

	// A second identical frame is a no-op.
	r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	if len(store.writes) != 1 {
		t.Errorf("writes after repeat = %d, want 1", len(store.writes))
	}
}

func TestReconcile_ReservedIgnoresClassifier(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	store.book("A1")
	r := NewReconciler(store, time.Second)

	out := r.Reconcile(context.Background(), "A1", Decide(1200, threshold))

	if len(store.writes) != 0 {
		t.Errorf("writes = %v, want none", store.writes)
	}
	if out.Display != DisplayReserved {
		t.Errorf("display = %s, want reserved", out.Display)
	}
	if store.spots["A1"] != model.StatusReserved {
		t.Errorf("status = %s, want reserved", store.spots["A1"])
	}
}

func TestReconcile_CancelThenOccupied(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	store.book("A1")
	store.cancel("A1")
	r := NewReconciler(store, time.Second)

	r.Reconcile(context.Background(), "A1", Decide(1200, threshold))

	if len(store.writes) != 1 || store.writes[0].status != model.StatusOccupied {
		t.Errorf("writes = %v, want one occupied write", store.writes)
	}
}

type arrivalLog struct {
	labels []string
	err    error
}

func (a *arrivalLog) MarkArrived(_ context.Context, label string) error {
	a.labels = append(a.labels, label)
	return a.err
}

func TestReconcile_ArrivalOnReservedSpotRecordedOnce(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	store.book("A1")
	arrivals := &arrivalLog{}
	r := NewReconciler(store, time.Second)
	r.Arrivals = arrivals

	// empty while waiting, then the car parks and stays
	for _, c := range []int{100, 200, 1200, 1300, 1250} {
		out := r.Reconcile(context.Background(), "A1", Decide(c, threshold))
		if out.Display != DisplayReserved {
			t.Errorf("count %d: display = %s, want reserved", c, out.Display)
		}
	}
	if len(arrivals.labels) != 1 || arrivals.labels[0] != "A1" {
		t.Errorf("arrivals = %v, want [A1]", arrivals.labels)
	}
	if len(store.writes) != 0 {
		t.Errorf("writes = %v, want none", store.writes)
	}

	// a new reservation after release is reported again
	store.cancel("A1")
	r.Reconcile(context.Background(), "A1", Decide(100, threshold))
	store.book("A1")
	r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	if len(arrivals.labels) != 2 {
		t.Errorf("arrivals after rebooking = %v, want 2", arrivals.labels)
	}
}

func TestReconcile_ArrivalFailureRetried(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusReserved})
	arrivals := &arrivalLog{err: errors.New("locked")}
	r := NewReconciler(store, 0)
	r.Arrivals = arrivals

	r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	arrivals.err = nil
	r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	if len(arrivals.labels) != 2 {
		t.Errorf("arrival calls = %d, want 2 (one failed, one recorded)", len(arrivals.labels))
	}
}

func TestReconcile_NoArrivalWithoutReservation(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	arrivals := &arrivalLog{}
	r := NewReconciler(store, 0)
	r.Arrivals = arrivals

	r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	if len(arrivals.labels) != 0 {
		t.Errorf("arrivals = %v, want none", arrivals.labels)
	}
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestReconcile_StickyReservationAnySequence(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"B2": model.StatusReserved})
	r := NewReconciler(store, 0)
	counts := []int{0, 899, 900, 901, 5000, 10, 1200, 300}
	for _, c := range counts {
		out := r.Reconcile(context.Background(), "B2", Decide(c, threshold))
		if out.Display != DisplayReserved {
			t.Errorf("count %d: display = %s, want reserved", c, out.Display)
		}
	}
	if len(store.writes) != 0 {
		t.Errorf("writes = %v, want none", store.writes)
	}
}

func TestReconcile_WriteOnlyOnChange(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	r := NewReconciler(store, 0)
	// free, free, occ, occ, occ, free, occ -> 3 transitions
	counts := []int{100, 200, 1000, 1100, 1200, 300, 950}
	for _, c := range counts {
		r.Reconcile(context.Background(), "A1", Decide(c, threshold))
	}
	if len(store.writes) != 3 {
		t.Errorf("writes = %d, want 3 (%v)", len(store.writes), store.writes)
	}
}

func TestDecide_Monotonic(t *testing.T) {
	if Decide(899, 900) != model.DecisionFree {
		t.Error("899 should be free")
	}
	if Decide(900, 900) != model.DecisionOccupied {
		t.Error("900 should be occupied")
	}
	for count := 0; count < 3000; count += 50 {
		if Decide(count, 900) == model.DecisionOccupied && Decide(count+1, 900) != model.DecisionOccupied {
			t.Errorf("decision went occupied -> free between %d and %d", count, count+1)
		}
	}
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestReconcile_ReadFailureContinues(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	store.readErr = errors.New("db down")
	r := NewReconciler(store, time.Second)

	out := r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	if out.Err == nil || out.Wrote {
		t.Errorf("outcome = %+v, want read error and no write", out)
	}
	if out.Display != DisplayOccupied {
		t.Errorf("display = %s, want occupied", out.Display)
	}
}

func TestReconcile_WriteFailureRetriedNextFrame(t *testing.T) {
	store := newMemStore(map[string]model.SpotStatus{"A1": model.StatusAvailable})
	store.writeErr = errors.New("locked")
	r := NewReconciler(store, time.Second)

	out := r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	if out.Err == nil || out.Wrote {
		t.Fatalf("outcome = %+v, want write error", out)
	}

	store.writeErr = nil
	out = r.Reconcile(context.Background(), "A1", Decide(1200, threshold))
	if !out.Wrote || store.spots["A1"] != model.StatusOccupied {
		t.Errorf("retry outcome = %+v status = %s", out, store.spots["A1"])
	}
}
