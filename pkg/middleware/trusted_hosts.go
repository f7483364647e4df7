package middleware

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TrustedHosts rejects requests whose Host header does not match one of the
// allowed patterns. A pattern may be an exact hostname or a "*.domain"
// wildcard. An empty allow list disables the check.
func TrustedHosts(allowedHosts []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(allowedHosts) == 0 {
			return c.Next()
		}

		host := c.Hostname()
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.ToLower(host)

		for _, pattern := range allowedHosts {
			pattern = strings.ToLower(pattern)
			if pattern == "*" || pattern == host {
				return c.Next()
			}
			if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
				if host == suffix || strings.HasSuffix(host, "."+suffix) {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid host header",
		})
	}
}
