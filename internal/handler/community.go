package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parkease/internal/model"
	"github.com/iliyamo/parkease/internal/repository"
)

// CommunityHandler takes waitlist sign-ups and feedback.
type CommunityHandler struct {
	Waitlist *repository.WaitlistRepo
	Feedback *repository.FeedbackRepo
}

type waitlistReq struct {
	UserName  string `json:"user_name"`
	UserPhone string `json:"user_phone"`
	UserEmail string `json:"user_email"`
	CarType   string `json:"car_type"`
}

type feedbackReq struct {
	UserName string `json:"user_name"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// JoinWaitlist handles POST /api/waitlist.
func (h *CommunityHandler) JoinWaitlist(c echo.Context) error {
	var req waitlistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.UserName) == "" || strings.TrimSpace(req.UserPhone) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_name and user_phone required"})
	}
	id, err := h.Waitlist.Add(c.Request().Context(), model.WaitlistEntry{
		UserName:      strings.TrimSpace(req.UserName),
		UserPhone:     phoneKey(req.UserPhone),
		UserEmail:     strings.TrimSpace(req.UserEmail),
		CarType:       strings.TrimSpace(req.CarType),
		RequestedTime: time.Now().UTC(),
		Status:        "waiting",
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to join waitlist"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": id})
}

// SubmitFeedback handles POST /api/feedback.
func (h *CommunityHandler) SubmitFeedback(c echo.Context) error {
	var req feedbackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be 1..5"})
	}
	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = "Anonymous"
	}
	id, err := h.Feedback.Create(c.Request().Context(), model.Feedback{
		UserName:  name,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save feedback"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": id})
}
