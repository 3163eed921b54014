package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/meeting-service/internal/api/http/handlers"
	"github.com/spec-kit/meeting-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Meetings       *handlers.MeetingsHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	users := api.Group("/users")
	users.Post("/register", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Post("/refresh-token", cfg.Users.Refresh)

	account := users.Group("", cfg.AuthMiddleware.Handle)
	account.Post("/logout", cfg.Users.Logout)
	account.Get("/current-user", cfg.Users.Current)
	account.Post("/change-password", cfg.Users.ChangePassword)
	account.Patch("/update-account", cfg.Users.UpdateAccount)
	account.Patch("/avatar", cfg.Users.UpdateAvatar)
	account.Post("/deactivate", cfg.Users.Deactivate)
	account.Get("/:userId/action-items", cfg.Users.ActionItems)

	meetings := api.Group("/meetings", cfg.AuthMiddleware.Handle)
	meetings.Post("/", auth.RequireManager(), cfg.Meetings.Create)
	meetings.Get("/", cfg.Meetings.List)
	meetings.Get("/staff/available", auth.RequireManager(), cfg.Meetings.AvailableStaff)
	meetings.Get("/:meetingId", cfg.Meetings.Get)
	meetings.Patch("/:meetingId", cfg.Meetings.Update)
	meetings.Post("/:meetingId/start", cfg.Meetings.Start)
	meetings.Post("/:meetingId/end", cfg.Meetings.End)
	meetings.Post("/:meetingId/cancel", cfg.Meetings.Cancel)
	meetings.Patch("/:meetingId/respond", cfg.Meetings.Respond)
	meetings.Get("/:meetingId/transcription", cfg.Meetings.Transcription)
	meetings.Post("/:meetingId/process-transcription", cfg.Meetings.ProcessTranscription)
	meetings.Patch("/:meetingId/action-items/:actionItemId", cfg.Meetings.UpdateActionItem)
}
