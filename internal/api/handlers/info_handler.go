package handlers

import (
	"time"

	"receipt-scanner/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const serviceVersion = "1.0.0"

type InfoHandler struct{}

func NewInfoHandler() *InfoHandler {
	return &InfoHandler{}
}

// Health godoc
// @Summary Liveness check
// @Tags info
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *InfoHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   serviceVersion,
	})
}

// Root godoc
// @Summary Service info
// @Tags info
// @Produce json
// @Success 200 {object} dto.ServiceInfoResponse
// @Router / [get]
func (h *InfoHandler) Root(c *fiber.Ctx) error {
	return c.JSON(dto.ServiceInfoResponse{
		Status:  "ok",
		Service: "Receipt Scanner API",
		Version: serviceVersion,
		Endpoints: map[string]string{
			"health": "/health",
			"scan":   "/scan (POST)",
		},
	})
}
