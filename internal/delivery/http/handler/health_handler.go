package handler

import (
	"time"

	"cv-hub/internal/delivery/http/dto"
	"cv-hub/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	uc usecase.HealthUsecase
}

func NewHealthHandler(uc usecase.HealthUsecase) *HealthHandler {
	return &HealthHandler{uc: uc}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.GetHealth)
}

func (h *HealthHandler) GetHealth(c fiber.Ctx) error {
	st := h.uc.Check(c.Context())

	status := fiber.StatusOK
	if !st.Healthy() {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(dto.HealthResponse{
		Status:    st.Status,
		Timestamp: st.Timestamp.Format(time.RFC3339Nano),
		Uptime:    st.Uptime,
		Database: dto.DatabaseHealth{
			Status: st.Database.Status,
			Type:   st.Database.Type,
		},
		Cache: st.Cache,
	})
}
