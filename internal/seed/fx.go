package seed

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/autoremind/autoremind/internal/config"
)

var Module = fx.Invoke(run)

func run(cfg config.Config, db *gorm.DB, log *zap.Logger) error {
	if !cfg.SeedDemoData {
		return nil
	}
	if err := EnsureDemoTenant(db); err != nil {
		return err
	}
	log.Info("demo tenant ensured", zap.String("email", demoEmail))
	return nil
}
