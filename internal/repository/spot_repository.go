package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/parkease/internal/model"
)

// SpotRepo provides access to the spots table.  Status columns are only
// ever changed through the methods below, each of which enforces the
// transitions defined by model.Transition.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo returns a new SpotRepo bound to the given database.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

const spotColumns = `id, spot_label, x, y, width, height, status, location, last_updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpot(row rowScanner) (model.Spot, error) {
	var (
		s      model.Spot
		status string
	)
	if err := row.Scan(&s.ID, &s.Label, &s.X, &s.Y, &s.Width, &s.Height, &status, &s.Location, &s.LastUpdated); err != nil {
		return model.Spot{}, err
	}
	st, err := model.ParseSpotStatus(status)
	if err != nil {
		return model.Spot{}, err
	}
	s.Status = st
	return s, nil
}

// GetSpotByLabel returns the spot with the given label or ErrSpotNotFound.
func (r *SpotRepo) GetSpotByLabel(ctx context.Context, label string) (model.Spot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+spotColumns+` FROM spots WHERE spot_label = ?`, label)
	s, err := scanSpot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Spot{}, ErrSpotNotFound
	}
	return s, err
}

// ListSpots returns every spot ordered by label ascending.  The ordering
// is what the detection loop zips with the geometry table.
func (r *SpotRepo) ListSpots(ctx context.Context) ([]model.Spot, error) {
	return r.list(ctx, `SELECT `+spotColumns+` FROM spots ORDER BY spot_label ASC`)
}

// ListAvailable returns the bookable spots ordered by label.
func (r *SpotRepo) ListAvailable(ctx context.Context) ([]model.Spot, error) {
	return r.list(ctx, `SELECT `+spotColumns+` FROM spots WHERE status = ? ORDER BY spot_label ASC`, model.StatusAvailable)
}

func (r *SpotRepo) list(ctx context.Context, q string, args ...any) ([]model.Spot, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Spot, 0, 32)
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stats counts spots by status.
func (r *SpotRepo) Stats(ctx context.Context) (model.SpotStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM spots GROUP BY status`)
	if err != nil {
		return model.SpotStats{}, err
	}
	defer rows.Close()
	var st model.SpotStats
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return model.SpotStats{}, err
		}
		st.Total += n
		switch model.SpotStatus(status) {
		case model.StatusAvailable:
			st.Available = n
		case model.StatusOccupied:
			st.Occupied = n
		case model.StatusReserved:
			st.Reserved = n
		}
	}
	return st, rows.Err()
}

// UpdateDetectedStatus applies a classifier decision to a spot.  The
// decision can only name available or occupied, and the WHERE clause
// leaves reserved rows untouched even if a booking lands between the
// caller's read and this write.  A spot that is reserved or already at
// the target status is not an error.
func (r *SpotRepo) UpdateDetectedStatus(ctx context.Context, label string, d model.Decision) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE spots SET status = ?, last_updated = ? WHERE spot_label = ? AND status <> ?`,
		d.Target(), time.Now().UTC(), label, model.StatusReserved)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetSpotByLabel(ctx, label); err != nil {
			return err
		}
	}
	return nil
}

// ReserveTx moves an available spot to reserved inside tx.  It returns
// ErrSpotNotFound for an unknown label and ErrConflict when the spot is
// not available.
func (r *SpotRepo) ReserveTx(ctx context.Context, tx *sql.Tx, label string) error {
	return r.transitionTx(ctx, tx, label, model.EventBooked)
}

// ReleaseTx moves a reserved spot back to available inside tx.
func (r *SpotRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, label string) error {
	return r.transitionTx(ctx, tx, label, model.EventCancelled)
}

func (r *SpotRepo) transitionTx(ctx context.Context, tx *sql.Tx, label string, ev model.Event) error {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT status FROM spots WHERE spot_label = ?`, label).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSpotNotFound
	}
	if err != nil {
		return err
	}
	from, err := model.ParseSpotStatus(raw)
	if err != nil {
		return err
	}
	to, err := model.Transition(from, ev)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	// compare-and-set on the status we read
	res, err := tx.ExecContext(ctx,
		`UPDATE spots SET status = ?, last_updated = ? WHERE spot_label = ? AND status = ?`,
		to, time.Now().UTC(), label, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// SpotSeed describes one spot to insert.
type SpotSeed struct {
	Label    string
	X, Y     int
	Width    int
	Height   int
	Location string
}

// CreateSpots inserts the given spots as available.  Labels that already
// exist are skipped; the number of inserted rows is returned.
func (r *SpotRepo) CreateSpots(ctx context.Context, seeds []SpotSeed) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	now := time.Now().UTC()
	inserted := 0
	for _, s := range seeds {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM spots WHERE spot_label = ?`, s.Label).Scan(&exists)
		if err != nil {
			return 0, err
		}
		if exists > 0 {
			continue
		}
		loc := s.Location
		if loc == "" {
			loc = "Main Parking"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spots (spot_label, x, y, width, height, status, location, last_updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Label, s.X, s.Y, s.Width, s.Height, model.StatusAvailable, loc, now); err != nil {
			return 0, err
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return inserted, nil
}

// ResetAll sets every spot back to available.
func (r *SpotRepo) ResetAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE spots SET status = ?, last_updated = ?`, model.StatusAvailable, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SyncDetected applies an externally supplied list of occupied labels:
// listed spots become occupied and the rest available.  Reserved spots
// are left alone, exactly as in UpdateDetectedStatus.
func (r *SpotRepo) SyncDetected(ctx context.Context, occupied []string) (int, error) {
	spots, err := r.ListSpots(ctx)
	if err != nil {
		return 0, err
	}
	set := make(map[string]struct{}, len(occupied))
	for _, l := range occupied {
		set[l] = struct{}{}
	}
	changed := 0
	for _, s := range spots {
		d := model.DecisionFree
		if _, ok := set[s.Label]; ok {
			d = model.DecisionOccupied
		}
		to, err := model.Transition(s.Status, d.Event())
		if err != nil || to == s.Status {
			continue
		}
		if err := r.UpdateDetectedStatus(ctx, s.Label, d); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
