package stream

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Boundary separates parts of the multipart stream.
const Boundary = "frame"

// ContentType is the response content type for WriteMJPEG.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// Flusher is implemented by http.ResponseWriter and echo.Response.
type Flusher interface {
	Flush()
}

// WriteMJPEG copies frames from h to w as multipart JPEG parts until ctx
// is done or a write fails.  minGap throttles a viewer to at most one
// part per interval; zero sends every published frame.
func WriteMJPEG(ctx context.Context, w io.Writer, h *Hub, minGap time.Duration) error {
	detach := h.attach()
	defer detach()

	flusher, _ := w.(Flusher)
	var seq uint64
	for {
		frame, next, err := h.Next(ctx, seq)
		if err != nil {
			return nil
		}
		seq = next
		if err := writePart(w, frame); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		if minGap > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(minGap):
			}
		}
	}
}

func writePart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", Boundary, len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
