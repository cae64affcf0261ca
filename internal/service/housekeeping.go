package service

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/parkease/internal/config"
    "github.com/iliyamo/parkease/internal/repository"
)

// Housekeeper periodically snapshots occupancy, expires bookings whose
// grace period passed without an arrival, completes bookings whose stay
// ended and drops refresh tokens that can no longer be used.  It only
// reads spots; releases go through BookingService.
type Housekeeper struct {
    Spots    *repository.SpotRepo
    Stats    *repository.StatsRepo
    Bookings *BookingService       // nil disables expiry and completion
    Tokens   *repository.TokenRepo // nil skips token cleanup
    Cfg      config.JobConfig
}

// RunOnce performs one round.
func (h *Housekeeper) RunOnce(ctx context.Context) error {
    if h.Bookings != nil && h.Cfg.ExpireEnabled {
        n, err := h.Bookings.ExpireStale(ctx)
        if err != nil {
            return err
        }
        if n > 0 {
            log.Printf("housekeeping: expired %d bookings", n)
        }
        n, err = h.Bookings.CompleteFinished(ctx)
        if err != nil {
            return err
        }
        if n > 0 {
            log.Printf("housekeeping: completed %d bookings", n)
        }
    }
    if h.Tokens != nil {
        n, err := h.Tokens.PurgeExpired(ctx, time.Now())
        if err != nil {
            return err
        }
        if n > 0 {
            log.Printf("housekeeping: purged %d refresh tokens", n)
        }
    }
    st, err := h.Spots.Stats(ctx)
    if err != nil {
        return err
    }
    return h.Stats.Record(ctx, time.Now(), st)
}

// Run loops until ctx is cancelled.  After a failed round it waits
// RetryInterval instead of StatsInterval.
func (h *Housekeeper) Run(ctx context.Context) {
    for {
        wait := h.Cfg.StatsInterval
        if err := h.RunOnce(ctx); err != nil {
            if ctx.Err() != nil {
                return
            }
            log.Printf("housekeeping: %v", err)
            wait = h.Cfg.RetryInterval
        }
        t := time.NewTimer(wait)
        select {
        case <-ctx.Done():
            t.Stop()
            return
        case <-t.C:
        }
    }
}
