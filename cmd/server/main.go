package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/database"
	"github.com/iliyamo/parkease/internal/handler"
	"github.com/iliyamo/parkease/internal/middleware"
	"github.com/iliyamo/parkease/internal/occupancy"
	"github.com/iliyamo/parkease/internal/queue"
	"github.com/iliyamo/parkease/internal/repository"
	"github.com/iliyamo/parkease/internal/router"
	"github.com/iliyamo/parkease/internal/service"
	"github.com/iliyamo/parkease/internal/stream"
	"github.com/iliyamo/parkease/internal/vision"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	detCfg := config.LoadDetectorConfig()
	jobCfg := config.LoadJobConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		log.Fatalf("database: migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.Fatalf("admin bootstrap: %v", err)
		}
		if created {
			log.Printf("admin bootstrap: created %s", cfg.AdminEmail)
		}
	}

	rdb := config.NewRedisClient() // nil disables cache and rate limiting
	if rdb != nil {
		defer rdb.Close()
	}

	spots := repository.NewSpotRepo(db)
	bookings := service.NewBookingService(db, service.NewAMQPPublisher(""), jobCfg.GracePeriod)
	hub := stream.NewHub()

	// Broker consumer writes logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(ctx, "logs"); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("booking-consumer: stopped: %v", err)
		}
	}()

	hk := &service.Housekeeper{
		Spots:    spots,
		Stats:    repository.NewStatsRepo(db),
		Bookings: bookings,
		Tokens:   repository.NewTokenRepo(db),
		Cfg:      jobCfg,
	}
	go hk.Run(ctx)

	var feed *stream.Hub
	if detCfg.Enabled {
		if err := startDetector(ctx, detCfg, spots, bookings.Bookings, hub); err != nil {
			log.Printf("detector: disabled: %v", err)
		} else {
			feed = hub
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e, db, spots)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)), cfg.JWTSecret, limit)
	router.RegisterPublic(e,
		&handler.SpotHandler{Spots: spots},
		&handler.BookingHandler{Svc: bookings, Loc: jobCfg.Location},
		&handler.CommunityHandler{Waitlist: repository.NewWaitlistRepo(db), Feedback: repository.NewFeedbackRepo(db)},
		cache, limit)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Spots:    spots,
		Bookings: bookings.Bookings,
		Logs:     bookings.Logs,
		Stats:    repository.NewStatsRepo(db),
		Feedback: repository.NewFeedbackRepo(db),
		Waitlist: repository.NewWaitlistRepo(db),
		Hub:      feed,
		FrameGap: 33 * time.Millisecond,
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s, detector=%t)", addr, cfg.Env, cfg.Database.Driver, feed != nil)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// startDetector runs the detection loop in its own goroutine, publishing
// annotated frames to hub.  Spot labels are read once; spots created later
// need a restart to be mapped.
func startDetector(ctx context.Context, cfg config.DetectorConfig, spots *repository.SpotRepo, arrivals occupancy.ArrivalRecorder, hub *stream.Hub) error {
	list, err := spots.ListSpots(ctx)
	if err != nil {
		return err
	}
	labels := make([]string, 0, len(list))
	for _, s := range list {
		labels = append(labels, s.Label)
	}
	det, err := vision.NewDetector(cfg, spots, labels)
	if err != nil {
		return err
	}
	det.Pipeline.Sink = &vision.HubSink{Hub: hub, Quality: cfg.JPEGQuality}
	det.Pipeline.Ticker = occupancy.NewTimeTicker(cfg.FPS)
	det.Pipeline.Reconciler.Arrivals = arrivals
	go func() {
		defer det.Close()
		if err := det.Pipeline.Run(ctx); err != nil {
			log.Printf("detector: loop stopped: %v", err)
		}
	}()
	return nil
}
