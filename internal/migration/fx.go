package migration

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/canopact/internal/clock"
	"github.com/smallbiznis/canopact/internal/config"
	"github.com/smallbiznis/canopact/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, clk clock.Clock, log *zap.Logger) error {
		if err := migrate(conn, cfg, log); err != nil {
			return err
		}
		if !cfg.IsProduction() && cfg.Bootstrap.SeedDemo {
			log.Info("seeding demo company", zap.String("email", cfg.Bootstrap.DemoEmail))
			return seed.EnsureDemoCompany(context.Background(), conn, node, clk.Now(), cfg)
		}
		return nil
	}),
)

func migrate(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if !cfg.DBAutoMigrate {
		return nil
	}
	if strings.EqualFold(cfg.DBType, "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		log.Info("applying embedded migrations")
		return RunMigrations(sqlDB)
	}
	log.Info("auto-migrating schema", zap.String("db_type", cfg.DBType))
	return AutoMigrate(conn)
}
