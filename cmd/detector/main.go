// Command detector runs the occupancy loop against the spot store and shows
// the annotated frames in a desktop window with live tuning trackbars.
// Press q or ESC to quit.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/database"
	"github.com/iliyamo/parkease/internal/repository"
	"github.com/iliyamo/parkease/internal/vision"
)

func main() {
	config.LoadDotEnv()
	dbCfg := config.LoadDatabaseConfig()
	detCfg := config.LoadDetectorConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(dbCfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dbCfg.Driver); err != nil {
		log.Fatalf("database: migrate: %v", err)
	}

	spots := repository.NewSpotRepo(db)
	list, err := spots.ListSpots(ctx)
	if err != nil {
		log.Fatalf("spots: %v", err)
	}
	labels := make([]string, 0, len(list))
	for _, s := range list {
		labels = append(labels, s.Label)
	}

	det, err := vision.NewDetector(detCfg, spots, labels)
	if err != nil {
		log.Fatal(err)
	}
	defer det.Close()
	det.Pipeline.Reconciler.Arrivals = repository.NewBookingRepo(db)

	win := vision.NewWindowSink("Parking occupancy", det.Classifier)
	defer win.Close()
	det.Pipeline.Sink = win // paced by the window key wait

	// deferred Close calls must still run
	if err := det.Pipeline.Run(ctx); err != nil {
		log.Printf("detector: %v", err)
	}
}
