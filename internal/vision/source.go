// Package vision implements the occupancy interfaces with gocv: a looping
// video-file source, the threshold classifier, the overlay renderer and
// the two sinks (desktop window and JPEG hub).
package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/iliyamo/parkease/internal/occupancy"
)

// ErrSourceUnavailable is returned when the recording cannot be opened or
// yields no frame even after rewinding.
var ErrSourceUnavailable = errors.New("frame source unavailable")

// Frame wraps a gocv.Mat for one loop iteration.
type Frame struct {
	Mat gocv.Mat
}

// Close releases the native image.
func (f *Frame) Close() error { return f.Mat.Close() }

func asFrame(f occupancy.Frame) (*Frame, error) {
	vf, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("vision: unexpected frame type %T", f)
	}
	return vf, nil
}

// FileSource plays a recording in an endless loop.
type FileSource struct {
	path string

	mu  sync.Mutex
	cap *gocv.VideoCapture
}

// OpenFileSource opens the recording at path.
func OpenFileSource(path string) (*FileSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: not opened", ErrSourceUnavailable, path)
	}
	return &FileSource{path: path, cap: capture}, nil
}

// Read returns the next frame.  End of stream and mid-stream read failures
// both rewind to frame zero; an error is returned only if the rewound
// stream still yields nothing.
func (s *FileSource) Read(ctx context.Context) (occupancy.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap == nil {
		return nil, fmt.Errorf("%w: %s: closed", ErrSourceUnavailable, s.path)
	}

	mat := gocv.NewMat()
	if s.cap.Read(&mat) && !mat.Empty() {
		s.rewindAtEnd()
		return &Frame{Mat: mat}, nil
	}

	s.cap.Set(gocv.VideoCapturePosFrames, 0)
	if s.cap.Read(&mat) && !mat.Empty() {
		return &Frame{Mat: mat}, nil
	}
	mat.Close()

	// Some backends cannot seek; reopen the file once.
	log.Printf("vision: rewind failed for %s, reopening", s.path)
	s.cap.Close()
	capture, err := gocv.VideoCaptureFile(s.path)
	if err != nil || !capture.IsOpened() {
		if capture != nil {
			capture.Close()
		}
		s.cap = nil
		return nil, fmt.Errorf("%w: %s: reopen failed", ErrSourceUnavailable, s.path)
	}
	s.cap = capture
	mat = gocv.NewMat()
	if s.cap.Read(&mat) && !mat.Empty() {
		return &Frame{Mat: mat}, nil
	}
	mat.Close()
	return nil, fmt.Errorf("%w: %s: no frames", ErrSourceUnavailable, s.path)
}

func (s *FileSource) rewindAtEnd() {
	pos := s.cap.Get(gocv.VideoCapturePosFrames)
	total := s.cap.Get(gocv.VideoCaptureFrameCount)
	if total > 0 && pos >= total {
		s.cap.Set(gocv.VideoCapturePosFrames, 0)
	}
}

// Close releases the capture device.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	return err
}
