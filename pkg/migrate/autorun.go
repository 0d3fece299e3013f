package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/logger"
)

// MaybeRun brings the schema up at boot. sqlite is always synced through
// AutoMigrate; Postgres runs the embedded goose migrations in dev when the
// auto-migrate flag is set.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if strings.EqualFold(cfg.DB.Driver, config.DriverSQLite) {
		logg.Info(ctx, "syncing sqlite schema")
		return client.AutoMigrate(ctx)
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
