package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck dependencia verificable (base de datos, cola).
type HealthCheck func(ctx context.Context) error

// Health responde 200 si todas las dependencias contestan; 503 en caso contrario.
// GET /health
func Health(service string, checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		status := fiber.StatusOK
		detail := make(fiber.Map, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				detail[name] = err.Error()
				status = fiber.StatusServiceUnavailable
				continue
			}
			detail[name] = "ok"
		}
		state := "ok"
		if status != fiber.StatusOK {
			state = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{"status": state, "service": service, "checks": detail})
	}
}
