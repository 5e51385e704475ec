package seeder

import (
	"context"

	"cv-hub/internal/database"
	"cv-hub/internal/usecase"

	"go.uber.org/zap"
)

type SystemConfigSeeder struct {
	Logger *zap.Logger
}

func (SystemConfigSeeder) Name() string { return "system_config" }

func (s SystemConfigSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "system_config", "id", "key", "value", "updated_at"); err != nil {
		return err
	}
	return usecase.NewSystemConfigUsecase(db, s.Logger).SeedDefaults(ctx)
}
