package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber application with the JSON error fallback.
func NewApp(appName string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          ErrorHandler,
		BodyLimit:             1 << 20,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})
}
