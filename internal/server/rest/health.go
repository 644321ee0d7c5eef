package rest

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const pingTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (s *Server) health(c *fiber.Ctx) error {
	if s.db == nil {
		return ok(c, healthResponse{Status: "ok", Database: "unknown"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "health check: database unreachable", "error", err)
		return respond(c, fiber.StatusServiceUnavailable, "database unreachable", healthResponse{Status: "degraded", Database: "down"})
	}
	return ok(c, healthResponse{Status: "ok", Database: "up"})
}
