package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/mealtime-backend/pkg/config"
	"github.com/angelmondragon/mealtime-backend/pkg/db"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on startup in dev when
// MEALTIME_AUTO_MIGRATE is set. SQLite databases are skipped since the
// migrations are Postgres SQL.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.FeatureFlags.UseSQLite {
		logg.Warn(ctx, "auto-migrate skipped: migrations target Postgres")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	migrator, err := NewMigrator(sqlDB, Migrations(), logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "auto-migrate: applying pending migrations")
	return migrator.Up(ctx)
}
