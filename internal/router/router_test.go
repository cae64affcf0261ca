package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/database"
	"github.com/iliyamo/parkease/internal/handler"
	"github.com/iliyamo/parkease/internal/repository"
	"github.com/iliyamo/parkease/internal/service"
)

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestRoutesRegistered(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite3", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	e := echo.New()
	spots := repository.NewSpotRepo(db)
	RegisterRoutes(e, db, spots)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{JWTSecret: "s"}, repository.NewUserRepo(db), repository.NewTokenRepo(db)), "s", passThrough)
	RegisterPublic(e,
		&handler.SpotHandler{Spots: spots},
		&handler.BookingHandler{Svc: service.NewBookingService(db, nil, 0)},
		&handler.CommunityHandler{Waitlist: repository.NewWaitlistRepo(db), Feedback: repository.NewFeedbackRepo(db)},
		passThrough, passThrough)
	RegisterAdmin(e, &handler.AdminHandler{}, "s")

	want := map[string]bool{
		"GET /healthz":             false,
		"GET /health":              false,
		"POST /api/auth/login":     false,
		"GET /api/auth/me":         false,
		"GET /api/spots":           false,
		"POST /api/book":           false,
		"POST /api/cancel/:id":     false,
		"GET /api/my-bookings":     false,
		"POST /api/waitlist":       false,
		"POST /api/feedback":       false,
		"GET /admin/api/dashboard": false,
		"GET /admin/api/analytics": false,
		"GET /admin/video-feed":    false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", k)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/dashboard", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin without token: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spots", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("spots: %d", rec.Code)
	}
}
