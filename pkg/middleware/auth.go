package middleware

import (
	"receipt-scanner/pkg/security"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthGuard enforces the shared-secret bearer check on protected routes.
// When no token is configured the guard passes every request through.
// Rejections are recorded as audit events before the response is written.
func AuthGuard(requiredToken string, auditor *security.Auditor, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authErr := security.CheckAuthToken(c.Get(fiber.HeaderAuthorization), requiredToken)
		if authErr == nil {
			return c.Next()
		}

		logger.Warn("Request rejected by access guard",
			zap.String("path", c.Path()),
			zap.String("reason", authErr.Message),
		)
		auditor.Record(c.Context(), security.Event{
			Type:      "auth_rejected",
			ClientIP:  c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
			Method:    c.Method(),
			Path:      c.Path(),
			Details:   map[string]any{"error": authErr.Message},
		})

		return c.Status(authErr.Status).JSON(fiber.Map{
			"error": authErr.Message,
		})
	}
}
