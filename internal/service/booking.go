package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/parkease/internal/model"
    q "github.com/iliyamo/parkease/internal/queue"
    "github.com/iliyamo/parkease/internal/repository"
)

// ErrInvalidBooking wraps request validation failures.
var ErrInvalidBooking = errors.New("invalid booking")

// BookingRequest is a validated-on-entry booking attempt.
type BookingRequest struct {
    SpotLabel     string
    UserName      string
    UserPhone     string
    UserEmail     string
    CarType       string
    ArrivalTime   time.Time
    DurationHours int
}

func (r BookingRequest) validate() error {
    switch {
    case strings.TrimSpace(r.SpotLabel) == "":
        return fmt.Errorf("%w: spot_label required", ErrInvalidBooking)
    case strings.TrimSpace(r.UserName) == "":
        return fmt.Errorf("%w: user_name required", ErrInvalidBooking)
    case strings.TrimSpace(r.UserPhone) == "":
        return fmt.Errorf("%w: user_phone required", ErrInvalidBooking)
    case strings.TrimSpace(r.CarType) == "":
        return fmt.Errorf("%w: car_type required", ErrInvalidBooking)
    case r.ArrivalTime.IsZero():
        return fmt.Errorf("%w: arrival_time required", ErrInvalidBooking)
    case r.DurationHours < 1 || r.DurationHours > 24:
        return fmt.Errorf("%w: duration must be 1..24 hours", ErrInvalidBooking)
    }
    return nil
}

// BookingService creates, cancels, expires and completes bookings.  Each operation
// runs one transaction that changes the booking row, moves the spot
// through model.Transition and writes an activity log entry; the broker
// event is published after commit.
type BookingService struct {
    DB       *sql.DB
    Spots    *repository.SpotRepo
    Bookings *repository.BookingRepo
    Logs     *repository.LogRepo
    Pub      Publisher
    Grace    time.Duration
    Now      func() time.Time
}

// NewBookingService wires the repositories over db.
func NewBookingService(db *sql.DB, pub Publisher, grace time.Duration) *BookingService {
    if pub == nil {
        pub = NopPublisher{}
    }
    return &BookingService{
        DB:       db,
        Spots:    repository.NewSpotRepo(db),
        Bookings: repository.NewBookingRepo(db),
        Logs:     repository.NewLogRepo(db),
        Pub:      pub,
        Grace:    grace,
        Now:      func() time.Time { return time.Now().UTC() },
    }
}

// Book reserves an available spot.  It returns repository.ErrSpotNotFound
// for an unknown label and repository.ErrConflict when the spot is not
// available.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (model.Booking, error) {
    if err := req.validate(); err != nil {
        return model.Booking{}, err
    }
    now := s.Now()
    b := model.Booking{
        Reference:     uuid.NewString(),
        SpotLabel:     strings.TrimSpace(req.SpotLabel),
        UserName:      strings.TrimSpace(req.UserName),
        UserPhone:     strings.TrimSpace(req.UserPhone),
        UserEmail:     strings.TrimSpace(req.UserEmail),
        CarType:       strings.TrimSpace(req.CarType),
        ArrivalTime:   req.ArrivalTime.UTC(),
        DurationHours: req.DurationHours,
        BookingTime:   now,
        Status:        model.BookingActive,
    }
    if s.Grace > 0 {
        g := b.ArrivalTime.Add(s.Grace)
        b.GracePeriodEnd = &g
    }

    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.Booking{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := s.Spots.ReserveTx(ctx, tx, b.SpotLabel); err != nil {
        return model.Booking{}, err
    }
    if err := s.Bookings.CreateTx(ctx, tx, &b); err != nil {
        return model.Booking{}, err
    }
    if err := s.Logs.AddWith(ctx, tx, model.ParkingLog{
        SpotLabel: b.SpotLabel,
        Action:    "booked",
        UserName:  b.UserName,
        Timestamp: now,
        Details:   fmt.Sprintf("Booked for %s, %dh", b.ArrivalTime.Format("2006-01-02 15:04"), b.DurationHours),
    }); err != nil {
        return model.Booking{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.Booking{}, err
    }
    committed = true

    s.publish(q.EventBookingCreated, b)
    return b, nil
}

// Cancel ends an active booking and releases its spot.
func (s *BookingService) Cancel(ctx context.Context, id uint64) (model.Booking, error) {
    return s.finish(ctx, id, model.BookingCancelled, "cancelled", q.EventBookingCancelled)
}

// ExpireStale releases every active booking whose grace period ended
// before the car arrived.  It returns how many were expired; individual
// failures are logged.
func (s *BookingService) ExpireStale(ctx context.Context) (int, error) {
    stale, err := s.Bookings.ListExpired(ctx, s.Now())
    if err != nil {
        return 0, err
    }
    return s.finishAll(ctx, stale, model.BookingExpired, "expired", q.EventBookingExpired), nil
}

// CompleteFinished releases every arrived booking whose booked stay has
// ended and returns how many were completed.
func (s *BookingService) CompleteFinished(ctx context.Context) (int, error) {
    done, err := s.Bookings.ListFinished(ctx, s.Now())
    if err != nil {
        return 0, err
    }
    return s.finishAll(ctx, done, model.BookingCompleted, "completed", q.EventBookingCompleted), nil
}

func (s *BookingService) finishAll(ctx context.Context, list []model.Booking, status model.BookingStatus, action, event string) int {
    n := 0
    for _, b := range list {
        if _, err := s.finish(ctx, b.ID, status, action, event); err != nil {
            log.Printf("bookings: %s %d (%s): %v", action, b.ID, b.SpotLabel, err)
            continue
        }
        n++
    }
    return n
}

func (s *BookingService) finish(ctx context.Context, id uint64, status model.BookingStatus, action, event string) (model.Booking, error) {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.Booking{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    b, err := s.Bookings.GetActiveTx(ctx, tx, id)
    if err != nil {
        return model.Booking{}, err
    }
    if err := s.Bookings.SetStatusTx(ctx, tx, id, status); err != nil {
        return model.Booking{}, err
    }
    // A spot no longer reserved (e.g. reset by an operator) stays as is.
    if err := s.Spots.ReleaseTx(ctx, tx, b.SpotLabel); err != nil && !errors.Is(err, repository.ErrConflict) {
        return model.Booking{}, err
    }
    if err := s.Logs.AddWith(ctx, tx, model.ParkingLog{
        SpotLabel: b.SpotLabel,
        Action:    action,
        UserName:  b.UserName,
        Timestamp: s.Now(),
        Details:   "Booking " + action,
    }); err != nil {
        return model.Booking{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.Booking{}, err
    }
    committed = true

    b.Status = status
    s.publish(event, b)
    return b, nil
}

// publish sends the event in the background; broker trouble never fails a
// booking.
func (s *BookingService) publish(typ string, b model.Booking) {
    ev := q.BookingEvent{
        Type:          typ,
        BookingID:     b.ID,
        Reference:     b.Reference,
        SpotLabel:     b.SpotLabel,
        UserName:      b.UserName,
        UserPhone:     b.UserPhone,
        CarType:       b.CarType,
        ArrivalTime:   b.ArrivalTime.Format(time.RFC3339),
        DurationHours: b.DurationHours,
        OccurredAt:    s.Now().Format(time.RFC3339),
    }
    pub := s.Pub
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := pub.Publish(ctx, ev); err != nil {
            log.Printf("bookings: publish %s for %d: %v", typ, b.ID, err)
        }
    }()
}
