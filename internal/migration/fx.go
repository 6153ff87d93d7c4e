package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	authdomain "github.com/autoremind/autoremind/internal/auth/domain"
	clientdomain "github.com/autoremind/autoremind/internal/client/domain"
	"github.com/autoremind/autoremind/internal/config"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	subscriptiondomain "github.com/autoremind/autoremind/internal/subscription/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL migrations are written for Postgres. Other
		// dialects are used for local development and fall back to
		// schema sync from the models.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&clientdomain.ClientRecord{},
				&settingsdomain.TenantSettings{},
				&subscriptiondomain.Subscription{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
