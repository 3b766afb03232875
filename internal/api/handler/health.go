package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/store"
)

type HealthHandler struct {
	store store.ReferenceStore
}

func NewHealthHandler(refs store.ReferenceStore) *HealthHandler {
	return &HealthHandler{store: refs}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Enrolled int    `json:"enrolled,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	n, err := h.store.Len(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "store unavailable",
		})
	}

	return c.JSON(HealthResponse{
		Status:   "ready",
		Enrolled: n,
	})
}
