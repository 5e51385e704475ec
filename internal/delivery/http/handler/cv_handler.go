package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"cv-hub/internal/delivery/http/dto"
	"cv-hub/internal/delivery/http/middleware"
	"cv-hub/internal/domain/cv"
	"cv-hub/internal/pkg/response"
	"cv-hub/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/tidwall/gjson"
)

const (
	publicCacheControl = "public, max-age=300"

	messageNumericID = "Validation failed (numeric string is expected)"
)

type CVHandler struct {
	uc usecase.CVUsecase
}

func NewCVHandler(uc usecase.CVUsecase) *CVHandler {
	return &CVHandler{uc: uc}
}

func (h *CVHandler) GetPublic(c fiber.Ctx) error {
	pub, err := h.uc.GetPublic(c.Context())
	if err != nil {
		return mapCVUsecaseError(err)
	}

	c.Set(fiber.HeaderETag, pub.ETag)
	c.Set(fiber.HeaderCacheControl, publicCacheControl)
	if etagMatches(c.Get(fiber.HeaderIfNoneMatch), pub.ETag) {
		return c.SendStatus(fiber.StatusNotModified)
	}

	return response.Success(c, fiber.StatusOK, json.RawMessage(pub.Body))
}

// GetFull serves the unfiltered document. It backs both the admin read and the invite-token route.
func (h *CVHandler) GetFull(c fiber.Ctx) error {
	rec, err := h.uc.GetFull(c.Context())
	if err != nil {
		return mapCVUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, json.RawMessage(rec.Data))
}

func (h *CVHandler) Update(c fiber.Ctx) error {
	body := c.Body()
	if !gjson.ValidBytes(body) {
		return middleware.NewAppError(fiber.StatusBadRequest, "Request body must be valid JSON", nil)
	}
	patch := gjson.GetBytes(body, "cv")
	if !patch.IsObject() {
		return middleware.NewAppError(fiber.StatusBadRequest, "Request body must contain a cv object", nil)
	}

	rec, err := h.uc.Update(c.Context(), []byte(patch.Raw), cv.SourceAPIUpdate)
	if err != nil {
		return mapCVUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, json.RawMessage(rec.Data))
}

func (h *CVHandler) ListVersions(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", usecase.DefaultVersionLimit)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "limit must be an integer", err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "offset must be an integer", err)
	}

	page, err := h.uc.ListVersions(c.Context(), limit, offset)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return middleware.NewAppError(fiber.StatusBadRequest, "limit must be between 1 and 100 and offset must not be negative", err)
		}
		return mapCVUsecaseError(err)
	}

	return response.Paginated(c, dto.NewCVVersionListResponse(page.Items), response.Pagination{
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasNext: page.HasNext,
	})
}

func (h *CVHandler) GetVersion(c fiber.Ctx) error {
	id, err := parseIDParam(c, "versionId")
	if err != nil {
		return err
	}
	v, err := h.uc.GetVersion(c.Context(), id)
	if err != nil {
		return mapCVUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, dto.NewCVVersionResponse(v))
}

func (h *CVHandler) Rollback(c fiber.Ctx) error {
	id, err := parseIDParam(c, "versionId")
	if err != nil {
		return err
	}
	rec, err := h.uc.Rollback(c.Context(), id)
	if err != nil {
		return mapCVUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, json.RawMessage(rec.Data))
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func parseIDParam(c fiber.Ctx, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(key), 10, 64)
	if err != nil {
		return 0, middleware.NewAppError(fiber.StatusBadRequest, messageNumericID, err)
	}
	return id, nil
}

// etagMatches implements the If-None-Match comparison, including lists and "*".
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func mapCVUsecaseError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrCVNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "CV not found", err)
	case errors.Is(err, usecase.ErrVersionNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "CV version not found", err)
	case errors.Is(err, usecase.ErrInvalidCV):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, err)
	}
}
