package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"cv-hub/internal/database"
	"cv-hub/internal/repository"

	"go.uber.org/zap"
)

// DefaultSystemConfig is created on startup when missing.
var DefaultSystemConfig = map[string]string{
	"app.version": "0.1.0",
}

type SystemConfigUsecase interface {
	Create(ctx context.Context, key, value string) (repository.SystemConfig, error)
	FindByKey(ctx context.Context, key string) (repository.SystemConfig, error)
	Update(ctx context.Context, key, value string) (repository.SystemConfig, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]repository.SystemConfig, error)
	SeedDefaults(ctx context.Context) error
}

type SystemConfigService struct {
	db     database.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewSystemConfigUsecase(db database.DB, logger *zap.Logger) *SystemConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemConfigService{db: db, logger: logger, now: time.Now}
}

// normalizeKey trims key and reports whether the result is storable.
func normalizeKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	return key, key != "" && len(key) <= 255
}

func (u *SystemConfigService) Create(ctx context.Context, key, value string) (repository.SystemConfig, error) {
	key, ok := normalizeKey(key)
	if !ok {
		return repository.SystemConfig{}, ErrInvalidInput
	}

	var out repository.SystemConfig
	err := database.WithTx(ctx, u.db, func(tx database.Tx) error {
		repo := repository.NewSystemConfigRepository(tx)
		_, err := repo.FindByKey(ctx, key)
		if err == nil {
			return ErrConfigExists
		}
		if !errors.Is(err, ErrConfigNotFound) {
			return err
		}
		out, err = repo.Create(ctx, key, value, u.now())
		return err
	})
	if err != nil {
		return repository.SystemConfig{}, err
	}

	u.logger.Info("system config created", zap.String("key", key))
	return out, nil
}

func (u *SystemConfigService) FindByKey(ctx context.Context, key string) (repository.SystemConfig, error) {
	key, ok := normalizeKey(key)
	if !ok {
		return repository.SystemConfig{}, ErrInvalidInput
	}
	return repository.NewSystemConfigRepository(u.db).FindByKey(ctx, key)
}

func (u *SystemConfigService) Update(ctx context.Context, key, value string) (repository.SystemConfig, error) {
	key, ok := normalizeKey(key)
	if !ok {
		return repository.SystemConfig{}, ErrInvalidInput
	}
	out, err := repository.NewSystemConfigRepository(u.db).Update(ctx, key, value, u.now())
	if err != nil {
		return repository.SystemConfig{}, err
	}
	u.logger.Info("system config updated", zap.String("key", key))
	return out, nil
}

// Upsert updates key or creates it when absent.
func (u *SystemConfigService) Upsert(ctx context.Context, key, value string) (repository.SystemConfig, bool, error) {
	out, err := u.Update(ctx, key, value)
	if err == nil {
		return out, false, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return repository.SystemConfig{}, false, err
	}
	out, err = u.Create(ctx, key, value)
	if errors.Is(err, ErrConfigExists) {
		// lost a create race; the row exists now
		out, err = u.Update(ctx, key, value)
		return out, false, err
	}
	if err != nil {
		return repository.SystemConfig{}, false, err
	}
	return out, true, nil
}

func (u *SystemConfigService) Delete(ctx context.Context, key string) (bool, error) {
	key, valid := normalizeKey(key)
	if !valid {
		return false, ErrInvalidInput
	}
	ok, err := repository.NewSystemConfigRepository(u.db).Delete(ctx, key)
	if err != nil {
		return false, err
	}
	if ok {
		u.logger.Info("system config deleted", zap.String("key", key))
	}
	return ok, nil
}

func (u *SystemConfigService) List(ctx context.Context) ([]repository.SystemConfig, error) {
	return repository.NewSystemConfigRepository(u.db).List(ctx)
}

func (u *SystemConfigService) SeedDefaults(ctx context.Context) error {
	for key, value := range DefaultSystemConfig {
		_, err := u.Create(ctx, key, value)
		if err != nil && !errors.Is(err, ErrConfigExists) {
			return err
		}
	}
	return nil
}
