package middleware

import (
	"cv-hub/internal/config"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const MessageInvalidGuardConfig = "Invalid guard configuration. See logs."

// placeholderGuard stands in for an access check that does not exist yet. In bypass mode every
// request passes, in strict mode every request gets 501. Any other mode fails closed.
type placeholderGuard struct {
	name          string
	envKey        string
	mode          string
	strictMessage string
	logger        *zap.Logger
}

func (g placeholderGuard) handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		switch g.mode {
		case config.GuardModeBypass, config.GuardModeStrict:
			g.logger.Warn("placeholder guard active",
				zap.String("guard", g.name),
				zap.String("mode", g.mode),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
			if g.mode == config.GuardModeStrict {
				return NewAppError(fiber.StatusNotImplemented, g.strictMessage, nil)
			}
			return c.Next()
		default:
			g.logger.Error("invalid placeholder guard mode",
				zap.String("guard", g.name),
				zap.String("env", g.envKey),
				zap.String("mode", g.mode),
				zap.Strings("expected", []string{config.GuardModeBypass, config.GuardModeStrict}),
			)
			return NewAppError(fiber.StatusNotImplemented, MessageInvalidGuardConfig, nil)
		}
	}
}

// AdminGuard protects the admin routes. mode comes from EPIC_2_ADMIN_PLACEHOLDER_MODE.
func AdminGuard(mode string, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return placeholderGuard{
		name:          "AdminGuard",
		envKey:        "EPIC_2_ADMIN_PLACEHOLDER_MODE",
		mode:          mode,
		strictMessage: "Admin authentication not yet implemented. See Epic 5.",
		logger:        logger,
	}.handler()
}

// InviteGuard protects token based private access. mode comes from EPIC_2_PLACEHOLDER_MODE.
func InviteGuard(mode string, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return placeholderGuard{
		name:          "InviteGuard",
		envKey:        "EPIC_2_PLACEHOLDER_MODE",
		mode:          mode,
		strictMessage: "Token-based access not yet implemented. See Epic 4.",
		logger:        logger,
	}.handler()
}
