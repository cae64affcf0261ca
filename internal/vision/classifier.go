package vision

import (
	"image"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/occupancy"
)

// Tunables are the preprocessing knobs.  Block size and median kernel
// must be odd; Normalize fixes them up.
type Tunables struct {
	BlockSize    int
	Offset       float64
	MedianKernel int
	Mean         bool // mean-weighted neighbourhood instead of gaussian
}

// TunablesFromConfig builds Tunables from detector configuration.
func TunablesFromConfig(cfg config.DetectorConfig) Tunables {
	return Tunables{
		BlockSize:    cfg.BlockSize,
		Offset:       cfg.Offset,
		MedianKernel: cfg.MedianKernel,
		Mean:         strings.EqualFold(cfg.Method, "mean"),
	}
}

// Normalize increments even sizes by one and clamps them to what OpenCV
// accepts.
func (t Tunables) Normalize() Tunables {
	if t.BlockSize%2 == 0 {
		t.BlockSize++
	}
	if t.BlockSize < 3 {
		t.BlockSize = 3
	}
	if t.MedianKernel%2 == 0 {
		t.MedianKernel++
	}
	if t.MedianKernel < 1 {
		t.MedianKernel = 1
	}
	return t
}

// Classifier counts foreground pixels per spot after the
// gray -> blur -> adaptive threshold -> median -> dilate chain.
type Classifier struct {
	mu     sync.Mutex
	tun    Tunables
	kernel gocv.Mat
}

// NewClassifier returns a Classifier; Close releases its kernel.
func NewClassifier(t Tunables) *Classifier {
	return &Classifier{
		tun:    t.Normalize(),
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Tunables returns the values currently in use.
func (c *Classifier) Tunables() Tunables {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tun
}

// SetTunables replaces the knobs; the next frame uses them.
func (c *Classifier) SetTunables(t Tunables) {
	c.mu.Lock()
	c.tun = t.Normalize()
	c.mu.Unlock()
}

// Close releases native resources.
func (c *Classifier) Close() error { return c.kernel.Close() }

// Preprocess returns the binary image used for counting.  The caller owns
// the returned Mat.
func (c *Classifier) Preprocess(src gocv.Mat) gocv.Mat {
	t := c.Tunables()

	gray := gocv.NewMat()
	defer gray.Close()
	if src.Channels() == 1 {
		src.CopyTo(&gray)
	} else {
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	}

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(3, 3), 1, 1, gocv.BorderDefault)

	method := gocv.AdaptiveThresholdGaussian
	if t.Mean {
		method = gocv.AdaptiveThresholdMean
	}
	thr := gocv.NewMat()
	defer thr.Close()
	gocv.AdaptiveThreshold(blur, &thr, 255, method, gocv.ThresholdBinaryInv, t.BlockSize, float32(t.Offset))

	med := gocv.NewMat()
	defer med.Close()
	gocv.MedianBlur(thr, &med, t.MedianKernel)

	out := gocv.NewMat()
	gocv.Dilate(med, &out, c.kernel)
	return out
}

// Count implements occupancy.Counter.
func (c *Classifier) Count(f occupancy.Frame, geoms []occupancy.Geometry) ([]int, error) {
	vf, err := asFrame(f)
	if err != nil {
		return nil, err
	}
	bin := c.Preprocess(vf.Mat)
	defer bin.Close()
	return CountRegions(bin, geoms), nil
}

// CountRegions counts non-zero pixels of bin inside each rectangle.
// Rectangles are clipped to the image; one entirely outside counts 0.
func CountRegions(bin gocv.Mat, geoms []occupancy.Geometry) []int {
	bounds := image.Rect(0, 0, bin.Cols(), bin.Rows())
	counts := make([]int, len(geoms))
	for i, g := range geoms {
		r := g.Rect().Intersect(bounds)
		if r.Empty() {
			continue
		}
		region := bin.Region(r)
		counts[i] = gocv.CountNonZero(region)
		region.Close()
	}
	return counts
}
