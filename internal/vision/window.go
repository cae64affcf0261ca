package vision

import (
	"context"

	"gocv.io/x/gocv"

	"github.com/iliyamo/parkease/internal/occupancy"
)

const (
	keyQuit = 'q'
	keyEsc  = 27
)

// WindowSink shows frames in a desktop window with live trackbars for the
// classifier tunables.  The key wait paces the loop, so run it without a
// Ticker.
type WindowSink struct {
	view     *gocv.Window
	controls *gocv.Window
	block    *gocv.Trackbar
	offset   *gocv.Trackbar
	median   *gocv.Trackbar
	cls      *Classifier
}

// NewWindowSink opens the viewer and a "Vals" control window bound to cls.
func NewWindowSink(title string, cls *Classifier) *WindowSink {
	t := cls.Tunables()
	w := &WindowSink{
		view:     gocv.NewWindow(title),
		controls: gocv.NewWindow("Vals"),
		cls:      cls,
	}
	w.controls.ResizeWindow(640, 240)
	w.block = w.controls.CreateTrackbar("Val1", 50)
	w.offset = w.controls.CreateTrackbar("Val2", 50)
	w.median = w.controls.CreateTrackbar("Val3", 50)
	w.block.SetPos(t.BlockSize)
	w.offset.SetPos(int(t.Offset))
	w.median.SetPos(t.MedianKernel)
	return w
}

// Emit implements occupancy.Sink.  'q' or ESC returns occupancy.ErrStop.
func (w *WindowSink) Emit(_ context.Context, f occupancy.Frame) error {
	vf, err := asFrame(f)
	if err != nil {
		return err
	}
	cur := w.cls.Tunables()
	w.cls.SetTunables(Tunables{
		BlockSize:    w.block.GetPos(),
		Offset:       float64(w.offset.GetPos()),
		MedianKernel: w.median.GetPos(),
		Mean:         cur.Mean,
	})
	w.view.IMShow(vf.Mat)
	switch w.view.WaitKey(10) {
	case keyQuit, keyEsc:
		return occupancy.ErrStop
	}
	return nil
}

// Close destroys both windows.
func (w *WindowSink) Close() error {
	w.controls.Close()
	return w.view.Close()
}
