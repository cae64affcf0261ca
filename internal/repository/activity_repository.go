package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/parkease/internal/model"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LogRepo writes and reads the parking_logs activity feed.
type LogRepo struct{ db *sql.DB }

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{db: db} }

// Add appends an entry using db.
func (r *LogRepo) Add(ctx context.Context, l model.ParkingLog) error {
	return r.AddWith(ctx, r.db, l)
}

// AddWith appends an entry using ex, typically a transaction.
func (r *LogRepo) AddWith(ctx context.Context, ex execer, l model.ParkingLog) error {
	ts := l.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO parking_logs (spot_label, action, user_name, timestamp, details) VALUES (?, ?, ?, ?, ?)`,
		l.SpotLabel, l.Action, l.UserName, ts.UTC(), l.Details)
	return err
}

// Recent returns the latest entries, newest first.
func (r *LogRepo) Recent(ctx context.Context, limit int) ([]model.ParkingLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, spot_label, action, user_name, timestamp, details FROM parking_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ParkingLog
	for rows.Next() {
		var l model.ParkingLog
		if err := rows.Scan(&l.ID, &l.SpotLabel, &l.Action, &l.UserName, &l.Timestamp, &l.Details); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// StatsRepo stores periodic occupancy snapshots.
type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Record inserts a snapshot taken at ts.
func (r *StatsRepo) Record(ctx context.Context, ts time.Time, s model.SpotStats) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO occupancy_stats (timestamp, total_spots, occupied_spots, available_spots, reserved_spots) VALUES (?, ?, ?, ?, ?)`,
		ts.UTC(), s.Total, s.Occupied, s.Available, s.Reserved)
	return err
}

// Since returns snapshots taken at or after from, oldest first.
func (r *StatsRepo) Since(ctx context.Context, from time.Time) ([]model.OccupancyStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, total_spots, occupied_spots, available_spots, reserved_spots
		 FROM occupancy_stats WHERE timestamp >= ? ORDER BY timestamp ASC, id ASC`, from.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.OccupancyStat
	for rows.Next() {
		var s model.OccupancyStat
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.Total, &s.Occupied, &s.Available, &s.Reserved); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FeedbackRepo stores user ratings.
type FeedbackRepo struct{ db *sql.DB }

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Create inserts f and returns its id.
func (r *FeedbackRepo) Create(ctx context.Context, f model.Feedback) (uint64, error) {
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (user_name, rating, comment, timestamp) VALUES (?, ?, ?, ?)`,
		f.UserName, f.Rating, f.Comment, ts.UTC())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Recent returns the latest feedback, newest first.
func (r *FeedbackRepo) Recent(ctx context.Context, limit int) ([]model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_name, rating, comment, timestamp FROM feedback ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.UserName, &f.Rating, &f.Comment, &f.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// WaitlistRepo stores drivers waiting for a free spot.
type WaitlistRepo struct{ db *sql.DB }

func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Add inserts w with status "waiting" and returns its id.
func (r *WaitlistRepo) Add(ctx context.Context, w model.WaitlistEntry) (uint64, error) {
	ts := w.RequestedTime
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist (user_name, user_phone, user_email, car_type, requested_time, status) VALUES (?, ?, ?, ?, ?, 'waiting')`,
		w.UserName, w.UserPhone, w.UserEmail, w.CarType, ts.UTC())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Waiting returns entries still waiting, oldest first.
func (r *WaitlistRepo) Waiting(ctx context.Context) ([]model.WaitlistEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_name, user_phone, user_email, car_type, requested_time, status FROM waitlist WHERE status = 'waiting' ORDER BY requested_time ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WaitlistEntry
	for rows.Next() {
		var w model.WaitlistEntry
		if err := rows.Scan(&w.ID, &w.UserName, &w.UserPhone, &w.UserEmail, &w.CarType, &w.RequestedTime, &w.Status); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ClearActivity deletes logs, stats, feedback and waitlist rows.  Used by
// the operator "clear" command together with BookingRepo.DeleteAll and
// SpotRepo.ResetAll.
func ClearActivity(ctx context.Context, db *sql.DB) error {
	for _, t := range []string{"parking_logs", "occupancy_stats", "feedback", "waitlist"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return err
		}
	}
	return nil
}
