package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/observability"
)

// NewApp creates the fiber application with the error handler and global middlewares installed.
func NewApp(cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ErrorHandler: ErrorHandler(logger, metrics),
		BodyLimit:    4 << 20,
	})
	RegisterMiddlewares(app, logger, metrics, cfg.RequestTimeout(), cfg.CORSAllowOrigins)
	return app
}
