package service

import (
	"context"
	"errors"

	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
	pkgdb "github.com/indigobills/indigobills/pkg/db"
	"gorm.io/gorm"
)

// allocateInvoiceNo assigns the next invoice number inside tx. The
// counter row is taken FOR UPDATE, so every concurrent creation queues
// here until the holder commits or rolls back; a rolled-back increment
// is undone with the rest of the transaction, a committed one is a
// consumed sequence value that is never reused.
func (s *Service) allocateInvoiceNo(ctx context.Context, tx *gorm.DB) (string, error) {
	var counter invoicedomain.InvoiceCounter
	err := pkgdb.ForUpdate(tx.WithContext(ctx)).
		Where("id = ?", invoicedomain.CounterRowID).
		First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", invoicedomain.ErrCounterUninitialized
		}
		return "", err
	}

	invoiceNo := invoicedomain.FormatInvoiceNo(counter.Prefix, counter.NextNo)

	err = tx.WithContext(ctx).
		Model(&invoicedomain.InvoiceCounter{}).
		Where("id = ?", invoicedomain.CounterRowID).
		UpdateColumn("next_no", gorm.Expr("next_no + ?", 1)).Error
	if err != nil {
		return "", err
	}

	return invoiceNo, nil
}
