// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/emclab/station-booking/internal/handler"
	"github.com/emclab/station-booking/internal/middleware"
	"github.com/emclab/station-booking/internal/model"
)

// Handlers collects everything the router needs.  RateLimit guards the whole
// API surface; Cache runs inside the authenticated group only, after JWTAuth,
// so a cache hit can never short-circuit authentication.  Either may be nil.
type Handlers struct {
	Auth        *handler.AuthHandler
	Reservation *handler.ReservationHandler
	Station     *handler.StationHandler
	Sevent      *handler.SeventHandler
	Settings    *handler.SettingsHandler
	Health      *handler.HealthHandler
	JWTSecret   string
	RateLimit   echo.MiddlewareFunc
	Cache       echo.MiddlewareFunc
}

// Register mounts the full API.  Everything except login, refresh, logout
// and the health probes requires a valid access token; user administration
// additionally requires the Admin role.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	e.GET("/health/db", h.Health.DB)

	api := e.Group("/api")
	if h.RateLimit != nil {
		api.Use(h.RateLimit)
	}

	// Unauthenticated: token acquisition and release.  Logout accepts an
	// expired access token, so it cannot sit behind JWTAuth.
	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh-token", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)

	// Authenticated surface.
	authed := api.Group("", middleware.JWTAuth(h.JWTSecret))
	if h.Cache != nil {
		authed.Use(h.Cache)
	}
	authed.POST("/auth/me", h.Auth.Me)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	admin := authed.Group("/auth", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/create", h.Auth.Create)
	admin.GET("/list", h.Auth.List)
	admin.DELETE("/remove/:id", h.Auth.Remove)
	admin.POST("/reset-password", h.Auth.ResetPassword)
	admin.POST("/set-active", h.Auth.SetActive)

	res := authed.Group("/reservations")
	res.GET("", h.Reservation.List)
	res.POST("", h.Reservation.Create)
	res.PUT("/:id", h.Reservation.Update)
	res.DELETE("/:id", h.Reservation.Delete)
	res.GET("/station/:id", h.Reservation.StationStatus)
	res.GET("/station/:id/month/:month", h.Reservation.StationMonth)
	res.GET("/load/:month", h.Reservation.MonthLoad)

	st := authed.Group("/stations")
	st.GET("", h.Station.List)
	st.GET("/:id", h.Station.Get)
	st.GET("/:id/shortname", h.Station.ShortName)
	st.POST("", h.Station.Create, middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	st.PUT("/:id", h.Station.Update, middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	st.DELETE("/:id", h.Station.Delete, middleware.RequireRole(model.RoleAdmin, model.RoleManager))

	se := authed.Group("/sevents")
	se.GET("", h.Sevent.List)
	se.GET("/:id", h.Sevent.Get)
	se.GET("/station/:id", h.Sevent.ByStation)
	se.POST("", h.Sevent.Create)
	se.PUT("/:id", h.Sevent.Update)
	se.DELETE("/:id", h.Sevent.Delete)

	authed.GET("/settings", h.Settings.Get)
}
