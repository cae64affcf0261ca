package vision

import (
	"fmt"
	"log"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/occupancy"
)

// Detector owns the gocv resources behind one detection pipeline.  The
// caller picks the sink and pacing before running Pipeline.
type Detector struct {
	Pipeline   *occupancy.Pipeline
	Classifier *Classifier
	source     *FileSource
}

// NewDetector loads the geometry table, maps it onto labels (persisted spot
// labels in any order) and opens the recording.  A geometry/label count
// mismatch is logged, not fatal.
func NewDetector(cfg config.DetectorConfig, store occupancy.SpotStore, labels []string) (*Detector, error) {
	geoms, err := occupancy.LoadGeometry(cfg.GeometryPath)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	m := occupancy.BuildSpotMap(geoms, labels)
	if msg := m.Mismatch(); msg != "" {
		log.Printf("detector: warning: %s; unmapped spots are drawn but never reconciled", msg)
	}
	src, err := OpenFileSource(cfg.VideoPath)
	if err != nil {
		return nil, err
	}
	cls := NewClassifier(TunablesFromConfig(cfg))
	log.Printf("detector: %d regions, %d mapped, threshold %d, source %s", m.Len(), m.MappedCount(), cfg.PixelThreshold, cfg.VideoPath)
	return &Detector{
		Pipeline: &occupancy.Pipeline{
			Source:     src,
			Counter:    cls,
			Reconciler: occupancy.NewReconciler(store, cfg.StoreTimeout),
			Renderer:   NewRenderer(),
			Map:        m,
			Threshold:  cfg.PixelThreshold,
		},
		Classifier: cls,
		source:     src,
	}, nil
}

// Close releases the capture and classifier.
func (d *Detector) Close() error {
	err := d.source.Close()
	if cerr := d.Classifier.Close(); err == nil {
		err = cerr
	}
	return err
}
