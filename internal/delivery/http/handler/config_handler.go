package handler

import (
	"context"
	"encoding/json"
	"errors"

	"cv-hub/internal/delivery/http/dto"
	"cv-hub/internal/delivery/http/middleware"
	"cv-hub/internal/pkg/response"
	"cv-hub/internal/repository"
	"cv-hub/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// ConfigStore is the part of the system config use case the admin API exposes.
type ConfigStore interface {
	FindByKey(ctx context.Context, key string) (repository.SystemConfig, error)
	Upsert(ctx context.Context, key, value string) (repository.SystemConfig, bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]repository.SystemConfig, error)
}

type ConfigHandler struct {
	uc ConfigStore
}

func NewConfigHandler(uc ConfigStore) *ConfigHandler {
	return &ConfigHandler{uc: uc}
}

func (h *ConfigHandler) List(c fiber.Ctx) error {
	items, err := h.uc.List(c.Context())
	if err != nil {
		return mapConfigUsecaseError(err)
	}
	out := make([]dto.SystemConfigResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NewSystemConfigResponse(it))
	}
	return response.Success(c, fiber.StatusOK, out)
}

func (h *ConfigHandler) Get(c fiber.Ctx) error {
	item, err := h.uc.FindByKey(c.Context(), c.Params("key"))
	if err != nil {
		return mapConfigUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, dto.NewSystemConfigResponse(item))
}

func (h *ConfigHandler) Put(c fiber.Ctx) error {
	var req dto.SystemConfigRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Value == nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Request body must contain a string value", err)
	}

	item, created, err := h.uc.Upsert(c.Context(), c.Params("key"), *req.Value)
	if err != nil {
		return mapConfigUsecaseError(err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return response.Success(c, status, dto.NewSystemConfigResponse(item))
}

func (h *ConfigHandler) Delete(c fiber.Ctx) error {
	ok, err := h.uc.Delete(c.Context(), c.Params("key"))
	if err != nil {
		return mapConfigUsecaseError(err)
	}
	if !ok {
		return middleware.NewAppError(fiber.StatusNotFound, "Config key not found", nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapConfigUsecaseError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrConfigNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Config key not found", err)
	case errors.Is(err, usecase.ErrConfigExists):
		return middleware.NewAppError(fiber.StatusConflict, "Config key already exists", err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid config key", err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, err)
	}
}
