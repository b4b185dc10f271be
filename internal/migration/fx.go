package migration

import (
	authdomain "github.com/indigobills/indigobills/internal/auth/domain"
	catalogdomain "github.com/indigobills/indigobills/internal/catalog/domain"
	clientdomain "github.com/indigobills/indigobills/internal/client/domain"
	"github.com/indigobills/indigobills/internal/config"
	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, logger *zap.Logger) error {
		// The iofs driver targets postgres; other dialects (sqlite for
		// local runs, mysql deployments) migrate from the models.
		if cfg.DBType != "postgres" {
			logger.Info("embedded migrations skipped", zap.String("db_type", cfg.DBType))
			return conn.AutoMigrate(
				&clientdomain.Client{},
				&catalogdomain.Product{},
				&invoicedomain.InvoiceCounter{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&authdomain.APIToken{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
