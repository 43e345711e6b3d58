// Package statusapi serves the operational HTTP surface: loop status,
// per-service state, and manual tick triggering.
package statusapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/event"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/loop"
)

const shutdownGrace = 5 * time.Second

// LoopController is the slice of the control loop the API needs.
type LoopController interface {
	Status() loop.Status
	Trigger(trig event.Trigger) bool
}

// Server exposes the status API over HTTP.
type Server struct {
	app    *fiber.App
	loop   LoopController
	listen string
	logger *logging.Logger
}

// NewServer builds the API server and registers its routes.
func NewServer(cfg *config.Config, ctrl LoopController, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Server{
		loop:   ctrl,
		listen: cfg.API.Listen,
		logger: logger.WithComponent("api"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "tsm status api",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	// Stdout may belong to the dashboard, so requests go through the
	// structured logger instead of fiber's console middleware.
	app.Use(s.logRequests)

	app.Get("/healthz", s.handleHealthz)
	api := app.Group("/api/v1")
	api.Get("/status", s.handleStatus)
	api.Get("/services", s.handleServices)
	api.Get("/services/:name", s.handleService)
	api.Post("/tick", s.handleTick)

	s.app = app
	return s
}

// Run serves until the context ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.listen)
	}()
	s.logger.Info("status api listening", "addr", s.listen)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "status api")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return errors.Wrap(err, "status api shutdown")
		}
		s.logger.Info("status api stopped")
		return nil
	}
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start).String())
	return err
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.loop.Status())
}

func (s *Server) handleServices(c *fiber.Ctx) error {
	services := s.loop.Status().Services
	if services == nil {
		services = []loop.ServiceStatus{}
	}
	return c.JSON(services)
}

func (s *Server) handleService(c *fiber.Ctx) error {
	name := c.Params("name")
	for _, svc := range s.loop.Status().Services {
		if svc.Name == name {
			return c.JSON(svc)
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":   "unknown service",
		"service": name,
	})
}

// handleTick queues a manual tick. A tick already pending covers the
// request, reported as coalesced rather than an error.
func (s *Server) handleTick(c *fiber.Ctx) error {
	queued := s.loop.Trigger(event.TriggerManual)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued":    queued,
		"coalesced": !queued,
	})
}
