package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/indigobills/indigobills/internal/catalog/domain"
	clientdomain "github.com/indigobills/indigobills/internal/client/domain"
	"github.com/indigobills/indigobills/internal/config"
	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
	"github.com/indigobills/indigobills/internal/observability"
	pkgdb "github.com/indigobills/indigobills/pkg/db"
	"github.com/indigobills/indigobills/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Invoicing *config.InvoicingConfigHolder
	Clients   clientdomain.Repository
	Catalog   catalogdomain.Resolver
	Metrics   *observability.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	invoicing *config.InvoicingConfigHolder
	clients   clientdomain.Repository
	catalog   catalogdomain.Resolver
	metrics   *observability.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		invoicing: p.Invoicing,
		clients:   p.Clients,
		catalog:   p.Catalog,
		metrics:   p.Metrics,
	}
}

// Create runs the whole creation as one transaction: allocate the
// invoice number under the counter lock, resolve the client, insert a
// zero-total shell, then per item resolve the product, price the line
// and insert it, and finally overwrite the shell with the computed
// totals. Any failure rolls everything back; there is no partial
// invoice and no observable partial counter advance.
func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.CreateInvoiceResponse, error) {
	if err := validateItems(req.Items); err != nil {
		return invoicedomain.CreateInvoiceResponse{}, err
	}
	if req.ClientID == 0 {
		if req.Client == nil {
			return invoicedomain.CreateInvoiceResponse{}, invoicedomain.ErrMissingClient
		}
		if strings.TrimSpace(req.Client.Name) == "" {
			return invoicedomain.CreateInvoiceResponse{}, clientdomain.ErrInvalidName
		}
	}

	var (
		invoice invoicedomain.Invoice
		items   []invoicedomain.InvoiceItem
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceNo, err := s.allocateInvoiceNo(ctx, tx)
		if err != nil {
			return err
		}

		clientID, err := s.resolveClient(ctx, tx, req)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		invoice = invoicedomain.Invoice{
			ID:              s.genID.Generate(),
			InvoiceNo:       invoiceNo,
			UserID:          req.UserID,
			ClientID:        clientID,
			MotorVehicleNo:  strings.TrimSpace(req.MotorVehicleNo),
			DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
			DiscountPercent: req.DiscountPercent,
			Notes:           strings.TrimSpace(req.Notes),
			Metadata:        datatypes.JSONMap{},
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
			return err
		}

		items, err = s.insertItems(ctx, tx, invoice.ID, req.Items, now)
		if err != nil {
			return err
		}

		total, discount, grand := aggregateTotals(items, req.DiscountPercent)
		if err := s.finalizeTotals(ctx, tx, invoice.ID, total, discount, grand, now); err != nil {
			return err
		}
		invoice.TotalAmount = total
		invoice.DiscountAmount = discount
		invoice.GrandTotal = grand
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.InvoiceCreateFailures.Inc()
		}
		return invoicedomain.CreateInvoiceResponse{}, err
	}

	if s.metrics != nil {
		s.metrics.InvoicesCreated.Inc()
	}
	s.log.Info("invoice created",
		zap.String("invoice_no", invoice.InvoiceNo),
		zap.Int64("user_id", invoice.UserID),
		zap.Int("items", len(items)),
	)
	return invoicedomain.CreateInvoiceResponse{Invoice: invoice, Items: items}, nil
}

// ReplaceItems overwrites the invoice in place: all items are deleted
// and reinserted from the payload, the header fields and recomputed
// totals rewritten. The invoice number, the counter and the client
// reference are never touched.
func (s *Service) ReplaceItems(ctx context.Context, req invoicedomain.ReplaceInvoiceItemsRequest) (invoicedomain.GetInvoiceResponse, error) {
	if req.InvoiceID == 0 {
		return invoicedomain.GetInvoiceResponse{}, invoicedomain.ErrInvalidID
	}
	if err := validateItems(req.Items); err != nil {
		return invoicedomain.GetInvoiceResponse{}, err
	}

	var (
		invoice invoicedomain.Invoice
		items   []invoicedomain.InvoiceItem
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.loadInvoiceForUpdate(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if existing == nil {
			return invoicedomain.ErrNotFound
		}
		invoice = *existing

		if err := tx.WithContext(ctx).
			Where("invoice_id = ?", req.InvoiceID).
			Delete(&invoicedomain.InvoiceItem{}).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		items, err = s.insertItems(ctx, tx, req.InvoiceID, req.Items, now)
		if err != nil {
			return err
		}

		total, discount, grand := aggregateTotals(items, req.DiscountPercent)
		err = tx.WithContext(ctx).
			Model(&invoicedomain.Invoice{}).
			Where("id = ?", req.InvoiceID).
			Updates(map[string]any{
				"motor_vehicle_no": strings.TrimSpace(req.MotorVehicleNo),
				"delivery_address": strings.TrimSpace(req.DeliveryAddress),
				"notes":            strings.TrimSpace(req.Notes),
				"total_amount":     total,
				"discount_percent": req.DiscountPercent,
				"discount_amount":  discount,
				"grand_total":      grand,
				"updated_at":       now,
			}).Error
		if err != nil {
			return err
		}

		invoice.MotorVehicleNo = strings.TrimSpace(req.MotorVehicleNo)
		invoice.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
		invoice.Notes = strings.TrimSpace(req.Notes)
		invoice.TotalAmount = total
		invoice.DiscountPercent = req.DiscountPercent
		invoice.DiscountAmount = discount
		invoice.GrandTotal = grand
		invoice.UpdatedAt = now
		return nil
	})
	if err != nil {
		return invoicedomain.GetInvoiceResponse{}, err
	}

	s.log.Info("invoice replaced",
		zap.String("invoice_no", invoice.InvoiceNo),
		zap.Int("items", len(items)),
	)
	return invoicedomain.GetInvoiceResponse{Invoice: invoice, Items: items}, nil
}

func (s *Service) GetByID(ctx context.Context, req invoicedomain.GetInvoiceRequest) (invoicedomain.GetInvoiceResponse, error) {
	if req.ID == 0 {
		return invoicedomain.GetInvoiceResponse{}, invoicedomain.ErrInvalidID
	}

	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).First(&invoice, "id = ?", req.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.GetInvoiceResponse{}, invoicedomain.ErrNotFound
		}
		return invoicedomain.GetInvoiceResponse{}, err
	}

	var items []invoicedomain.InvoiceItem
	err = s.db.WithContext(ctx).
		Where("invoice_id = ?", req.ID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return invoicedomain.GetInvoiceResponse{}, err
	}

	return invoicedomain.GetInvoiceResponse{Invoice: invoice, Items: items}, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	stmt := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{})
	if req.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", req.ClientID)
	}
	if req.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *req.CreatedFrom)
	}
	if req.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *req.CreatedTo)
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidID
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidID
		}
		stmt = stmt.Where("id < ?", afterID)
	}

	var rows []*invoicedomain.Invoice
	err := stmt.Order("id desc").Limit(pageSize + 1).Find(&rows).Error
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, pageSize, func(inv *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(rows) > pageSize {
		rows = rows[:pageSize]
	}

	invoices := make([]invoicedomain.Invoice, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		invoices = append(invoices, *row)
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// resolveClient trusts an explicit client id as-is; otherwise the
// payload is inserted unconditionally inside tx.
func (s *Service) resolveClient(ctx context.Context, tx *gorm.DB, req invoicedomain.CreateInvoiceRequest) (snowflake.ID, error) {
	if req.ClientID != 0 {
		return req.ClientID, nil
	}

	now := time.Now().UTC()
	client := clientdomain.Client{
		ID:             s.genID.Generate(),
		Name:           strings.TrimSpace(req.Client.Name),
		Address:        strings.TrimSpace(req.Client.Address),
		MotorVehicleNo: strings.TrimSpace(req.Client.MotorVehicleNo),
		GSTIN:          strings.TrimSpace(req.Client.GSTIN),
		Phone:          strings.TrimSpace(req.Client.Phone),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.clients.Insert(ctx, tx, &client); err != nil {
		return 0, err
	}
	return client.ID, nil
}

func (s *Service) insertItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, inputs []invoicedomain.ItemInput, now time.Time) ([]invoicedomain.InvoiceItem, error) {
	defaultBagWeight := s.invoicing.Get().DefaultBagWeightKg

	items := make([]invoicedomain.InvoiceItem, 0, len(inputs))
	for _, in := range inputs {
		res, err := s.catalog.Resolve(ctx, tx, catalogdomain.ResolveInput{
			ProductID:   in.ProductID,
			HSNCode:     in.HSNCode,
			Name:        in.Name,
			BagWeightKg: in.BagWeightKg,
		})
		if err != nil {
			return nil, err
		}

		weightKg, amount := ComputeLine(in, defaultBagWeight)

		bagWeight := in.BagWeightKg
		if bagWeight <= 0 {
			bagWeight = defaultBagWeight
		}
		description := strings.TrimSpace(in.Description)
		if description == "" {
			description = strings.TrimSpace(in.Name)
		}

		item := invoicedomain.InvoiceItem{
			ID:              s.genID.Generate(),
			InvoiceID:       invoiceID,
			ProductID:       res.ProductID,
			Description:     description,
			HSNCode:         res.HSNCode,
			NumBags:         in.NumBags,
			BagWeightKg:     bagWeight,
			QuantityKg:      weightKg,
			RatePerBag:      in.RatePerBag,
			RatePerKg:       in.RatePerKg,
			DiscountPercent: in.DiscountPercent,
			GSTPercent:      in.GSTPercent,
			Amount:          amount,
			CreatedAt:       now,
		}
		if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) finalizeTotals(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, total, discount, grand float64, now time.Time) error {
	return tx.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]any{
			"total_amount":    total,
			"discount_amount": discount,
			"grand_total":     grand,
			"updated_at":      now,
		}).Error
}

func (s *Service) loadInvoiceForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := pkgdb.ForUpdate(tx.WithContext(ctx)).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// aggregateTotals folds line amounts into the header totals. Only the
// invoice-level discount participates; per-item discount and GST
// percents are stored on the lines without affecting the header.
func aggregateTotals(items []invoicedomain.InvoiceItem, discountPercent float64) (total, discount, grand float64) {
	for _, item := range items {
		total += item.Amount
	}
	discount = total * discountPercent / 100
	grand = total - discount
	return total, discount, grand
}

// validateItems rejects unidentifiable lines before any write happens.
func validateItems(items []invoicedomain.ItemInput) error {
	for _, item := range items {
		if item.ProductID == 0 && strings.TrimSpace(item.Name) == "" {
			return invoicedomain.ErrMissingProductName
		}
	}
	return nil
}
