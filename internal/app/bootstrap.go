package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cv-hub/internal/config"
	"cv-hub/internal/delivery/http/handler"
	"cv-hub/internal/delivery/http/middleware"
	"cv-hub/internal/delivery/http/routes"
	"cv-hub/internal/web"
	"cv-hub/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP application on top of an initialised container.
func New(c *Container) (*App, error) {
	cfg := c.Config

	page, err := web.NewPage()
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	f := fiber.New(fiber.Config{
		AppName:      cfg.App.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	registerGlobalMiddleware(f, c)

	registry := &routes.Registry{
		Guards:       cfg.Guards,
		Logger:       c.Logger.Named("guard"),
		AdminLimiter: middleware.NewRateLimiter(cfg.Limits.AdminRPS, cfg.Limits.AdminBurst),
		Health:       handler.NewHealthHandler(c.Health),
		CV:           handler.NewCVHandler(c.CV),
		Page:         handler.NewPageHandler(c.CV, page, c.PDF),
		SystemConfig: handler.NewConfigHandler(c.SystemConfig),
		WS:           ws.NewHandler(c.Hub, cfg.App.CORSOrigin, c.Logger.Named("ws")),
		Metrics:      c.Metrics,
	}
	registry.Register(f)

	return &App{Fiber: f, Container: c}, nil
}

// Bootstrap wires the container, seeds the database and starts the websocket hub. cleanup stops
// the hub and closes connections.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := c.Seed(ctx); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("seed database: %w", err)
	}

	app, err := New(c)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		c.Hub.Run(hubCtx)
	}()

	cleanup := func() error {
		stopHub()
		<-hubDone
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(c.Logger.Named("http")).Middleware())
	app.Use(c.Metrics.Middleware("/api/metrics"))
	app.Use(middleware.NewErrorMiddleware(c.Logger.Named("http"), !c.Config.IsProduction()).Middleware())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{c.Config.App.CORSOrigin},
		AllowMethods:     []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions},
		AllowHeaders:     []string{fiber.HeaderContentType, fiber.HeaderIfNoneMatch, "X-Request-ID"},
		ExposeHeaders:    []string{fiber.HeaderETag, "X-Request-ID"},
		AllowCredentials: true,
	}))
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
