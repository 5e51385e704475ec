package middleware

import (
	"errors"
	"fmt"

	"cv-hub/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type AppError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *AppError) HTTPStatus() int {
	if e == nil || e.StatusCode <= 0 {
		return fiber.StatusInternalServerError
	}
	return e.StatusCode
}

func NewAppError(statusCode int, message string, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Cause: cause}
}

type ErrorMiddleware struct {
	logger      *zap.Logger
	development bool
}

// NewErrorMiddleware attaches stack traces to logged 5xx errors when development is true.
func NewErrorMiddleware(logger *zap.Logger, development bool) *ErrorMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorMiddleware{logger: logger, development: development}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.log(c, fiber.StatusInternalServerError, fmt.Errorf("panic: %v", r))
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg := normalizeError(err)
		m.log(c, status, err)
		return response.Error(c, status, msg)
	}
}

func (m *ErrorMiddleware) log(c fiber.Ctx, status int, err error) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("method", c.Method()),
		zap.String("path", c.OriginalURL()),
		zap.Error(err),
	}
	if rid, ok := c.Locals(CtxRequestIDKey).(string); ok {
		fields = append(fields, zap.String("rid", rid))
	}

	if status < 500 {
		m.logger.Debug("request failed", fields...)
		return
	}
	if m.development {
		fields = append(fields, zap.Stack("stack"))
	}
	m.logger.Error("request failed", fields...)
}

// normalizeError maps err to a status and public message. A 5xx AppError keeps its message only
// when it has no cause; internal failures are reported as a generic 500 text.
func normalizeError(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		msg := appErr.Message
		if msg == "" || (status >= 500 && appErr.Cause != nil) {
			msg = response.DefaultMessageForStatus(status)
		}
		return status, msg
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 {
			status = fiber.StatusInternalServerError
		}
		if status >= 500 {
			return status, response.DefaultMessageForStatus(status)
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = response.DefaultMessageForStatus(status)
		}
		return status, msg
	}

	return fiber.StatusInternalServerError, response.MessageInternalServerError
}
