package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parkease/internal/handler"
	"github.com/iliyamo/parkease/internal/middleware"
	"github.com/iliyamo/parkease/internal/model"
	"github.com/iliyamo/parkease/internal/repository"
)

// RegisterRoutes registers the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, db *sql.DB, spots *repository.SpotRepo) {
	e.GET("/healthz", handler.Health)
	e.GET("/health", handler.Readiness(db, spots))
}

// RegisterAuth registers account endpoints under /api/auth.  limit guards
// the credential endpoints; /me needs a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)
	// logout only needs the refresh token in the body
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleUser, model.RoleAdmin))
}

// RegisterPublic registers the unauthenticated parking API.  cache sits in
// front of the spot listing, limit in front of every write.
func RegisterPublic(e *echo.Echo, s *handler.SpotHandler, b *handler.BookingHandler, c *handler.CommunityHandler,
	cache, limit echo.MiddlewareFunc) {
	g := e.Group("/api")
	g.GET("/spots", s.List, cache)
	g.GET("/spots/:label", s.Get)
	g.POST("/book", b.Book, limit)
	g.POST("/cancel/:id", b.Cancel, limit)
	g.GET("/my-bookings", b.MyBookings)
	g.POST("/waitlist", c.JoinWaitlist, limit)
	g.POST("/feedback", c.SubmitFeedback, limit)
}

// RegisterAdmin registers ADMIN-only endpoints.  The video feed sits
// outside /admin/api because it is a long-lived stream, not JSON.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/api/dashboard", a.Dashboard)
	g.GET("/api/analytics", a.Analytics)
	g.GET("/video-feed", a.VideoFeed)
}
