package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parkease/internal/repository"
	"github.com/iliyamo/parkease/internal/service"
	"github.com/iliyamo/parkease/internal/utils"
)

// BookingHandler exposes booking creation, cancellation and lookup.
type BookingHandler struct {
	Svc *service.BookingService
	Loc *time.Location // zone for arrival times without an offset; nil means time.Local
}

type bookReq struct {
	SpotLabel   string `json:"spot_label"`
	UserName    string `json:"user_name"`
	UserPhone   string `json:"user_phone"`
	UserEmail   string `json:"user_email"`
	CarType     string `json:"car_type"`
	ArrivalTime string `json:"arrival_time"`
	Duration    int    `json:"duration"`
}

// localArrivalLayouts carry no offset and are read in the lot's zone; the
// last one is what an HTML datetime-local input submits.
var localArrivalLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseArrival accepts RFC 3339 or a zone-less local time interpreted in
// loc, and returns UTC.
func parseArrival(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, l := range localArrivalLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// phoneKey returns the stored form of a phone number.  Numbers that do not
// match the local format are kept as typed.
func phoneKey(raw string) string {
	if p, err := utils.NormalizePhone(raw); err == nil {
		return p
	}
	return strings.TrimSpace(raw)
}

// Book handles POST /api/book.
func (h *BookingHandler) Book(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	arrival, ok := parseArrival(req.ArrivalTime, h.Loc)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_time must be RFC3339 or YYYY-MM-DDTHH:MM"})
	}
	b, err := h.Svc.Book(c.Request().Context(), service.BookingRequest{
		SpotLabel:     req.SpotLabel,
		UserName:      req.UserName,
		UserPhone:     phoneKey(req.UserPhone),
		UserEmail:     req.UserEmail,
		CarType:       req.CarType,
		ArrivalTime:   arrival,
		DurationHours: req.Duration,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"success": true, "booking": b})
	case errors.Is(err, service.ErrInvalidBooking):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSpotNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "spot not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "spot is not available"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
}

// Cancel handles POST /api/cancel/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Svc.Cancel(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active booking with that id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": b})
}

// MyBookings handles GET /api/my-bookings?phone=.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	phone := strings.TrimSpace(c.QueryParam("phone"))
	if phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone required"})
	}
	list, err := h.Svc.Bookings.ListByPhone(c.Request().Context(), phoneKey(phone))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}
