package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/parkease/internal/model"
)

// BookingRepo provides access to the bookings table.  All timestamps are
// stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, reference, spot_label, user_name, user_phone, user_email, car_type,
	arrival_time, duration, booking_time, status, grace_period_end, arrived_at`

func scanBooking(row rowScanner) (model.Booking, error) {
	var (
		b      model.Booking
		status string
		grace  sql.NullTime
		seen   sql.NullTime
	)
	err := row.Scan(&b.ID, &b.Reference, &b.SpotLabel, &b.UserName, &b.UserPhone, &b.UserEmail,
		&b.CarType, &b.ArrivalTime, &b.DurationHours, &b.BookingTime, &status, &grace, &seen)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingStatus(status)
	if grace.Valid {
		g := grace.Time
		b.GracePeriodEnd = &g
	}
	if seen.Valid {
		a := seen.Time
		b.ArrivedAt = &a
	}
	return b, nil
}

// CreateTx inserts b within tx and fills in its generated ID.  The caller
// is responsible for reserving the spot in the same transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	var grace any
	if b.GracePeriodEnd != nil {
		grace = b.GracePeriodEnd.UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (reference, spot_label, user_name, user_phone, user_email, car_type,
			arrival_time, duration, booking_time, status, grace_period_end)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Reference, b.SpotLabel, b.UserName, b.UserPhone, b.UserEmail, b.CarType,
		b.ArrivalTime.UTC(), b.DurationHours, b.BookingTime.UTC(), b.Status, grace)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetActiveTx loads an active booking by id inside tx, returning
// ErrBookingNotFound when it does not exist or is no longer active.
func (r *BookingRepo) GetActiveTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND status = ?`, id, model.BookingActive)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// GetByID returns a booking in any state.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// SetStatusTx moves an active booking to a terminal status.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus) error {
	res, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, status, id, model.BookingActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListActive returns active bookings, newest first.
func (r *BookingRepo) ListActive(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY booking_time DESC, id DESC`, model.BookingActive)
}

// ListByPhone returns every booking made with the given phone, newest first.
func (r *BookingRepo) ListByPhone(ctx context.Context, phone string) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_phone = ? ORDER BY booking_time DESC, id DESC`, phone)
}

// ListExpired returns active bookings whose grace period ended before now
// without the car having arrived.
func (r *BookingRepo) ListExpired(ctx context.Context, now time.Time) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = ? AND arrived_at IS NULL AND grace_period_end IS NOT NULL AND grace_period_end < ? ORDER BY id`,
		model.BookingActive, now.UTC())
}

// ListFinished returns active, arrived bookings whose stay ended before now.
func (r *BookingRepo) ListFinished(ctx context.Context, now time.Time) ([]model.Booking, error) {
	arrived, err := r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = ? AND arrived_at IS NOT NULL ORDER BY id`,
		model.BookingActive)
	if err != nil {
		return nil, err
	}
	out := arrived[:0]
	for _, b := range arrived {
		if b.EndsAt().Before(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

// MarkArrived stamps the active booking on label with the current time if
// no arrival was recorded yet.  A spot without an active booking is not an
// error.
func (r *BookingRepo) MarkArrived(ctx context.Context, label string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET arrived_at = ? WHERE spot_label = ? AND status = ? AND arrived_at IS NULL`,
		time.Now().UTC(), label, model.BookingActive)
	return err
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0, 16)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteAll removes every booking and returns the number deleted.
func (r *BookingRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
