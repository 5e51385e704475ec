package routes

import (
	"cv-hub/internal/config"
	"cv-hub/internal/delivery/http/handler"
	"cv-hub/internal/delivery/http/middleware"
	"cv-hub/internal/infrastructure/metrics"
	"cv-hub/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type Registry struct {
	Guards       config.GuardConfig
	Logger       *zap.Logger
	AdminLimiter *middleware.RateLimiter

	Health       *handler.HealthHandler
	CV           *handler.CVHandler
	Page         *handler.PageHandler
	SystemConfig *handler.ConfigHandler
	WS           *ws.Handler
	Metrics      *metrics.Metrics
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	app.Get("/", r.Page.GetPage)

	api := app.Group("/api")
	r.Health.RegisterRoutes(api)
	if r.Metrics != nil {
		api.Get("/metrics", r.Metrics.Handler())
	}

	r.registerCV(api.Group("/cv"))
}

func (r *Registry) registerCV(group fiber.Router) {
	group.Get("/public", r.CV.GetPublic)
	group.Get("/public/pdf", r.Page.GetPDF)
	group.Get("/private/:token", middleware.InviteGuard(r.Guards.InviteMode, r.Logger), r.CV.GetFull)

	adminHandlers := []any{}
	if r.AdminLimiter != nil {
		adminHandlers = append(adminHandlers, r.AdminLimiter.Middleware())
	}
	adminHandlers = append(adminHandlers, middleware.AdminGuard(r.Guards.AdminMode, r.Logger))
	admin := group.Group("/admin", adminHandlers...)

	admin.Get("/cv", r.CV.GetFull)
	admin.Patch("/cv", r.CV.Update)
	admin.Get("/cv/versions", r.CV.ListVersions)
	admin.Get("/cv/versions/:versionId", r.CV.GetVersion)
	admin.Post("/cv/rollback/:versionId", r.CV.Rollback)

	admin.Get("/config", r.SystemConfig.List)
	admin.Get("/config/:key", r.SystemConfig.Get)
	admin.Put("/config/:key", r.SystemConfig.Put)
	admin.Delete("/config/:key", r.SystemConfig.Delete)

	if r.WS != nil {
		admin.Get("/ws", r.WS.HandleCVFeed)
	}
}
