package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/database"
	"github.com/iliyamo/parkease/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite3", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedSpots(t *testing.T, r *SpotRepo, labels ...string) {
	t.Helper()
	seeds := make([]SpotSeed, 0, len(labels))
	for i, l := range labels {
		seeds = append(seeds, SpotSeed{Label: l, X: 10, Y: 10 + 50*i, Width: 103, Height: 43})
	}
	if _, err := r.CreateSpots(context.Background(), seeds); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func status(t *testing.T, r *SpotRepo, label string) model.SpotStatus {
	t.Helper()
	s, err := r.GetSpotByLabel(context.Background(), label)
	if err != nil {
		t.Fatalf("get %s: %v", label, err)
	}
	return s.Status
}

// withTx runs fn in a transaction and commits when it succeeds.
func withTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Spots
// ---------------------------------------------------------------------------

func TestCreateSpotsAndList(t *testing.T) {
	r := NewSpotRepo(openTestDB(t))
	seedSpots(t, r, "B1", "A2", "A1")

	n, err := r.CreateSpots(context.Background(), []SpotSeed{{Label: "A1"}, {Label: "C1", Width: 103, Height: 43}})
	if err != nil || n != 1 {
		t.Fatalf("second seed: n=%d err=%v", n, err)
	}
	spots, err := r.ListSpots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range spots {
		got = append(got, s.Label)
		if s.Status != model.StatusAvailable || s.Location != "Main Parking" {
			t.Errorf("%s: %s at %q", s.Label, s.Status, s.Location)
		}
	}
	want := []string{"A1", "A2", "B1", "C1"}
	if len(got) != len(want) {
		t.Fatalf("labels %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels %v, want %v", got, want)
		}
	}
	if _, err := r.GetSpotByLabel(context.Background(), "Z9"); !errors.Is(err, ErrSpotNotFound) {
		t.Fatalf("unknown label: %v", err)
	}
}

func TestUpdateDetectedStatusLeavesReserved(t *testing.T) {
	db := openTestDB(t)
	r := NewSpotRepo(db)
	seedSpots(t, r, "A1", "A2")
	ctx := context.Background()

	if err := r.UpdateDetectedStatus(ctx, "A1", model.DecisionOccupied); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r, "A1"); got != model.StatusOccupied {
		t.Fatalf("A1 %s", got)
	}
	if err := withTx(t, db, func(tx *sql.Tx) error { return r.ReserveTx(ctx, tx, "A2") }); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	for _, d := range []model.Decision{model.DecisionOccupied, model.DecisionFree} {
		if err := r.UpdateDetectedStatus(ctx, "A2", d); err != nil {
			t.Fatalf("detect on reserved: %v", err)
		}
		if got := status(t, r, "A2"); got != model.StatusReserved {
			t.Fatalf("reserved spot became %s", got)
		}
	}
	if err := r.UpdateDetectedStatus(ctx, "Z9", model.DecisionFree); !errors.Is(err, ErrSpotNotFound) {
		t.Fatalf("unknown label: %v", err)
	}
}

func TestReserveRelease(t *testing.T) {
	db := openTestDB(t)
	r := NewSpotRepo(db)
	seedSpots(t, r, "A1", "A2")
	ctx := context.Background()

	reserve := func(label string) error {
		return withTx(t, db, func(tx *sql.Tx) error { return r.ReserveTx(ctx, tx, label) })
	}
	release := func(label string) error {
		return withTx(t, db, func(tx *sql.Tx) error { return r.ReleaseTx(ctx, tx, label) })
	}

	if err := reserve("A1"); err != nil {
		t.Fatal(err)
	}
	if err := reserve("A1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("double reserve: %v", err)
	}
	if err := reserve("Z9"); !errors.Is(err, ErrSpotNotFound) {
		t.Fatalf("unknown reserve: %v", err)
	}
	if err := r.UpdateDetectedStatus(ctx, "A2", model.DecisionOccupied); err != nil {
		t.Fatal(err)
	}
	if err := reserve("A2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("reserve occupied: %v", err)
	}
	if err := release("A2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("release occupied: %v", err)
	}
	if err := release("A1"); err != nil {
		t.Fatal(err)
	}
	if got := status(t, r, "A1"); got != model.StatusAvailable {
		t.Fatalf("A1 %s", got)
	}

	st, err := r.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st != (model.SpotStats{Total: 2, Available: 1, Occupied: 1}) {
		t.Fatalf("stats %+v", st)
	}
}

func TestSyncDetectedAndReset(t *testing.T) {
	db := openTestDB(t)
	r := NewSpotRepo(db)
	seedSpots(t, r, "A1", "A2", "A3")
	ctx := context.Background()
	if err := withTx(t, db, func(tx *sql.Tx) error { return r.ReserveTx(ctx, tx, "A3") }); err != nil {
		t.Fatal(err)
	}

	n, err := r.SyncDetected(ctx, []string{"A1", "A3"})
	if err != nil || n != 1 {
		t.Fatalf("sync: n=%d err=%v", n, err)
	}
	if n, _ := r.SyncDetected(ctx, []string{"A1", "A3"}); n != 0 {
		t.Fatalf("repeat sync changed %d", n)
	}
	avail, err := r.ListAvailable(ctx)
	if err != nil || len(avail) != 1 || avail[0].Label != "A2" {
		t.Fatalf("available %v %v", avail, err)
	}

	reset, err := r.ResetAll(ctx)
	if err != nil || reset != 3 {
		t.Fatalf("reset %d %v", reset, err)
	}
	if got := status(t, r, "A3"); got != model.StatusAvailable {
		t.Fatalf("A3 %s", got)
	}
}

// ---------------------------------------------------------------------------
// Bookings and activity
// ---------------------------------------------------------------------------

func TestBookingLifecycle(t *testing.T) {
	db := openTestDB(t)
	r := NewBookingRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	grace := now.Add(10 * time.Minute)

	b := model.Booking{
		Reference: "ref-1", SpotLabel: "A1", UserName: "Sara", UserPhone: "03123456789",
		CarType: "Sedan", ArrivalTime: now, DurationHours: 2, BookingTime: now.Add(-time.Hour),
		Status: model.BookingActive, GracePeriodEnd: &grace,
	}
	if err := withTx(t, db, func(tx *sql.Tx) error { return r.CreateTx(ctx, tx, &b) }); err != nil {
		t.Fatal(err)
	}
	if b.ID == 0 {
		t.Fatal("id not set")
	}

	got, err := r.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.GracePeriodEnd == nil || !got.GracePeriodEnd.Equal(grace) || !got.ArrivalTime.Equal(now) {
		t.Fatalf("round trip %+v", got)
	}

	if list, _ := r.ListExpired(ctx, now); len(list) != 0 {
		t.Fatalf("expired before grace: %d", len(list))
	}
	if list, _ := r.ListExpired(ctx, grace.Add(time.Second)); len(list) != 1 {
		t.Fatalf("expired after grace: %d", len(list))
	}
	if list, _ := r.ListByPhone(ctx, "03123456789"); len(list) != 1 {
		t.Fatalf("by phone: %d", len(list))
	}

	if err := r.MarkArrived(ctx, "A1"); err != nil {
		t.Fatal(err)
	}
	got, _ = r.GetByID(ctx, b.ID)
	if got.ArrivedAt == nil {
		t.Fatal("arrival not recorded")
	}
	first := *got.ArrivedAt
	if err := r.MarkArrived(ctx, "A1"); err != nil {
		t.Fatal(err)
	}
	if got, _ = r.GetByID(ctx, b.ID); !got.ArrivedAt.Equal(first) {
		t.Fatalf("arrival overwritten: %v -> %v", first, got.ArrivedAt)
	}
	if list, _ := r.ListExpired(ctx, grace.Add(time.Second)); len(list) != 0 {
		t.Fatalf("arrived booking listed as expired: %d", len(list))
	}
	if list, _ := r.ListFinished(ctx, b.EndsAt()); len(list) != 0 {
		t.Fatalf("finished at end time: %d", len(list))
	}
	if list, _ := r.ListFinished(ctx, b.EndsAt().Add(time.Second)); len(list) != 1 {
		t.Fatalf("finished after end: %d", len(list))
	}
	if err := r.MarkArrived(ctx, "B9"); err != nil {
		t.Fatalf("no booking on spot: %v", err)
	}

	if err := withTx(t, db, func(tx *sql.Tx) error { return r.SetStatusTx(ctx, tx, b.ID, model.BookingCancelled) }); err != nil {
		t.Fatal(err)
	}
	err = withTx(t, db, func(tx *sql.Tx) error {
		_, err := r.GetActiveTx(ctx, tx, b.ID)
		return err
	})
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("cancelled booking still active: %v", err)
	}
	if list, _ := r.ListActive(ctx); len(list) != 0 {
		t.Fatalf("active %d", len(list))
	}
	if _, err := r.GetByID(ctx, 999); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("missing id: %v", err)
	}
	if n, err := r.DeleteAll(ctx); err != nil || n != 1 {
		t.Fatalf("delete all %d %v", n, err)
	}
}

func TestActivityRepos(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	logs := NewLogRepo(db)
	for i, action := range []string{"booked", "cancelled"} {
		if err := logs.Add(ctx, model.ParkingLog{SpotLabel: "A1", Action: action, Timestamp: now.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}
	recent, err := logs.Recent(ctx, 1)
	if err != nil || len(recent) != 1 || recent[0].Action != "cancelled" {
		t.Fatalf("recent logs %v %v", recent, err)
	}

	stats := NewStatsRepo(db)
	_ = stats.Record(ctx, now.Add(-2*time.Hour), model.SpotStats{Total: 3, Occupied: 3})
	_ = stats.Record(ctx, now.Add(-time.Minute), model.SpotStats{Total: 3, Occupied: 1, Available: 2})
	rows, err := stats.Since(ctx, now.Add(-time.Hour))
	if err != nil || len(rows) != 1 || rows[0].Occupied != 1 || rows[0].Available != 2 {
		t.Fatalf("stats since %v %v", rows, err)
	}

	fb := NewFeedbackRepo(db)
	if _, err := fb.Create(ctx, model.Feedback{UserName: "Sara", Rating: 4, Timestamp: now}); err != nil {
		t.Fatal(err)
	}
	wl := NewWaitlistRepo(db)
	if _, err := wl.Add(ctx, model.WaitlistEntry{UserName: "Omar", UserPhone: "03987654321", CarType: "SUV", RequestedTime: now, Status: "waiting"}); err != nil {
		t.Fatal(err)
	}
	if w, _ := wl.Waiting(ctx); len(w) != 1 {
		t.Fatalf("waiting %d", len(w))
	}

	if err := ClearActivity(ctx, db); err != nil {
		t.Fatal(err)
	}
	if l, _ := logs.Recent(ctx, 10); len(l) != 0 {
		t.Fatalf("logs after clear %d", len(l))
	}
	if f, _ := fb.Recent(ctx, 10); len(f) != 0 {
		t.Fatalf("feedback after clear %d", len(f))
	}
}

// ---------------------------------------------------------------------------
// Users and tokens
// ---------------------------------------------------------------------------

func TestUsersAndTokens(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	id, err := users.Create(ctx, NewUser{Name: "Sara", Email: " Sara@Example.com ", Phone: "03123456789", Password: "Secret#123"}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := users.Create(ctx, NewUser{Name: "Sara", Email: "sara@example.com", Password: "x"}, 4); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate: %v", err)
	}
	u, err := users.GetByEmail(ctx, "sara@example.com")
	if err != nil || u.ID != id || u.Role != model.RoleUser {
		t.Fatalf("get by email %+v %v", u, err)
	}

	created, err := users.EnsureAdmin(ctx, "admin@example.com", "Admin#1234", 4)
	if err != nil || !created {
		t.Fatalf("ensure admin %v %v", created, err)
	}
	if created, _ := users.EnsureAdmin(ctx, "admin@example.com", "Admin#1234", 4); created {
		t.Fatal("admin created twice")
	}

	if err := tokens.StoreRefresh(ctx, id, "hash-1", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := tokens.StoreRefresh(ctx, id, "hash-old", time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if got, err := tokens.Consume(ctx, "hash-1"); err != nil || got != id {
		t.Fatalf("consume %d %v", got, err)
	}
	if _, err := tokens.Consume(ctx, "hash-1"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("second use: %v", err)
	}
	if _, err := tokens.Consume(ctx, "hash-old"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expired token: %v", err)
	}
	if _, err := tokens.Consume(ctx, "missing"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("unknown token: %v", err)
	}

	if err := tokens.StoreRefresh(ctx, id, "hash-live", time.Now().UTC().Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	// hash-old expired and hash-1 was revoked; both go
	n, err := tokens.PurgeExpired(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil || n != 2 {
		t.Fatalf("purge %d %v, want 2", n, err)
	}
	if got, err := tokens.Consume(ctx, "hash-live"); err != nil || got != id {
		t.Fatalf("live token after purge %d %v", got, err)
	}
}
