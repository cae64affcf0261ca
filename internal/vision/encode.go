package vision

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/iliyamo/parkease/internal/occupancy"
	"github.com/iliyamo/parkease/internal/stream"
)

// EncodeJPEG compresses img.  quality outside 1..100 falls back to 80.
func EncodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = 80
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	// GetBytes aliases native memory released by Close
	src := buf.GetBytes()
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// HubSink publishes every frame as JPEG to a stream hub.
type HubSink struct {
	Hub     *stream.Hub
	Quality int
	// Always encodes even with no viewers attached, so a viewer joining
	// sees a frame immediately.
	Always bool
}

// Emit implements occupancy.Sink.
func (s *HubSink) Emit(_ context.Context, f occupancy.Frame) error {
	if !s.Always && s.Hub.Viewers() == 0 {
		return nil
	}
	vf, err := asFrame(f)
	if err != nil {
		return err
	}
	b, err := EncodeJPEG(vf.Mat, s.Quality)
	if err != nil {
		return err
	}
	s.Hub.Publish(b)
	return nil
}
