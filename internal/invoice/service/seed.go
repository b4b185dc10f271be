package service

import (
	"context"
	"time"

	"github.com/indigobills/indigobills/internal/config"
	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
	pkgdb "github.com/indigobills/indigobills/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedCounter inserts the singleton counter row from configuration when
// the table is empty. This is the only code path that ever creates the
// row; the allocator treats a missing row as a fatal setup defect.
func SeedCounter(cfg config.Config, db *gorm.DB, logger *zap.Logger) error {
	ctx := context.Background()

	var count int64
	if err := db.WithContext(ctx).Model(&invoicedomain.InvoiceCounter{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	counter := invoicedomain.InvoiceCounter{
		ID:        invoicedomain.CounterRowID,
		Prefix:    cfg.CounterPrefix,
		NextNo:    cfg.CounterStart,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&counter).Error; err != nil {
		// Another instance won the race to seed; theirs stands.
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}

	logger.Info("invoice counter seeded",
		zap.String("prefix", counter.Prefix),
		zap.Int64("next_no", counter.NextNo),
	)
	return nil
}
