package api

import (
	"strings"
	"time"

	"receipt-scanner/docs"
	"receipt-scanner/internal/api/handlers"
	"receipt-scanner/pkg/config"
	"receipt-scanner/pkg/middleware"
	"receipt-scanner/pkg/security"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupRouter(
	cfg *config.Config,
	scanHandler *handlers.ScanHandler,
	infoHandler *handlers.InfoHandler,
	auditor *security.Auditor,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		// Keep headroom above the configured maximum so oversize uploads
		// reach the handler's own size check and its 413 message instead of
		// being cut off at the transport.
		BodyLimit:    (cfg.Security.MaxFileSizeMB + 5) * 1024 * 1024,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	if len(cfg.Security.AllowedHosts) > 0 {
		app.Use(middleware.TrustedHosts(cfg.Security.AllowedHosts))
	}
	if len(cfg.Security.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.Security.CORSOrigins, ","),
			AllowMethods:     "GET,POST",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: true,
		}))
	}
	app.Use(fiberlogger.New())

	// Swagger - importing the docs package registers the documentation via init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/", infoHandler.Root)
	app.Get("/health", infoHandler.Health)

	app.Post("/scan",
		limiter.New(limiter.Config{
			Max:        cfg.Security.RateLimitPerMinute,
			Expiration: time.Minute,
		}),
		middleware.AuthGuard(cfg.Security.AuthToken, auditor, appLogger),
		scanHandler.ScanReceipt,
	)

	return app
}
