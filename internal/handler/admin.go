package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parkease/internal/model"
	"github.com/iliyamo/parkease/internal/repository"
	"github.com/iliyamo/parkease/internal/stream"
)

// AdminHandler serves the admin dashboard data, analytics and the live
// detection feed.
type AdminHandler struct {
	Spots    *repository.SpotRepo
	Bookings *repository.BookingRepo
	Logs     *repository.LogRepo
	Stats    *repository.StatsRepo
	Feedback *repository.FeedbackRepo
	Waitlist *repository.WaitlistRepo
	Hub      *stream.Hub   // nil when the detector is disabled
	FrameGap time.Duration // minimum spacing between frames sent to one viewer
}

type dashboardResp struct {
	Spots    []model.Spot          `json:"spots"`
	Stats    model.SpotStats       `json:"stats"`
	Bookings []model.Booking       `json:"active_bookings"`
	Logs     []model.ParkingLog    `json:"recent_logs"`
	Feedback []model.Feedback      `json:"recent_feedback"`
	Waitlist []model.WaitlistEntry `json:"waitlist"`
	Viewers  int                   `json:"stream_viewers"`
}

// Dashboard handles GET /admin/api/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		resp dashboardResp
		err  error
	)
	if resp.Spots, err = h.Spots.ListSpots(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load spots"})
	}
	resp.Stats = model.CountSpots(resp.Spots)
	if resp.Bookings, err = h.Bookings.ListActive(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	if resp.Logs, err = h.Logs.Recent(ctx, 20); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load logs"})
	}
	if resp.Feedback, err = h.Feedback.Recent(ctx, 10); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load feedback"})
	}
	if resp.Waitlist, err = h.Waitlist.Waiting(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load waitlist"})
	}
	if h.Hub != nil {
		resp.Viewers = h.Hub.Viewers()
	}
	return c.JSON(http.StatusOK, resp)
}

type analyticsSummary struct {
	Samples      int     `json:"samples"`
	AvgOccupied  float64 `json:"avg_occupied"`
	PeakOccupied int     `json:"peak_occupied"`
	AvgReserved  float64 `json:"avg_reserved"`
}

func summarize(rows []model.OccupancyStat) analyticsSummary {
	s := analyticsSummary{Samples: len(rows)}
	if len(rows) == 0 {
		return s
	}
	occ, res := 0, 0
	for _, r := range rows {
		occ += r.Occupied
		res += r.Reserved
		if r.Occupied > s.PeakOccupied {
			s.PeakOccupied = r.Occupied
		}
	}
	s.AvgOccupied = float64(occ) / float64(len(rows))
	s.AvgReserved = float64(res) / float64(len(rows))
	return s
}

// Analytics handles GET /admin/api/analytics?hours=24.  hours is clamped
// to 1..720.
func (h *AdminHandler) Analytics(c echo.Context) error {
	hours := 24
	if v := c.QueryParam("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "hours must be an integer"})
		}
		hours = n
	}
	if hours < 1 {
		hours = 1
	}
	if hours > 720 {
		hours = 720
	}
	from := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	rows, err := h.Stats.Since(c.Request().Context(), from)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load analytics"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hours":   hours,
		"from":    from,
		"trends":  rows,
		"summary": summarize(rows),
	})
}

// VideoFeed handles GET /admin/video-feed: an MJPEG stream of the
// annotated detection frames that runs until the client disconnects.
func (h *AdminHandler) VideoFeed(c echo.Context) error {
	if h.Hub == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "detector not running"})
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, stream.ContentType)
	res.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()
	if err := stream.WriteMJPEG(c.Request().Context(), res, h.Hub, h.FrameGap); err != nil {
		c.Logger().Debugf("video-feed: viewer left: %v", err)
	}
	return nil
}
