package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/indigobills/indigobills/internal/catalog/domain"
	catalogrepo "github.com/indigobills/indigobills/internal/catalog/repository"
	catalogservice "github.com/indigobills/indigobills/internal/catalog/service"
	clientdomain "github.com/indigobills/indigobills/internal/client/domain"
	clientrepo "github.com/indigobills/indigobills/internal/client/repository"
	"github.com/indigobills/indigobills/internal/config"
	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&catalogdomain.Product{},
		&invoicedomain.InvoiceCounter{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	))
	return db
}

func setupInvoiceService(t *testing.T, db *gorm.DB) invoicedomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	invoicing := config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig())
	catalogSvc := catalogservice.New(catalogservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Invoicing: invoicing,
		Repo:      catalogrepo.Provide(),
	})

	return NewService(ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Invoicing: invoicing,
		Clients:   clientrepo.Provide(),
		Catalog:   catalogservice.ProvideResolver(catalogSvc),
	})
}

func seedTestCounter(t *testing.T, db *gorm.DB, nextNo int64) {
	t.Helper()
	require.NoError(t, db.Create(&invoicedomain.InvoiceCounter{
		ID:        invoicedomain.CounterRowID,
		Prefix:    "IB",
		NextNo:    nextNo,
		UpdatedAt: time.Now().UTC(),
	}).Error)
}

func counterNextNo(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var counter invoicedomain.InvoiceCounter
	require.NoError(t, db.First(&counter, "id = ?", invoicedomain.CounterRowID).Error)
	return counter.NextNo
}

func TestCreateInvoiceHappyPath(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	resp, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 7,
		Client: &invoicedomain.ClientInput{
			Name:    "Sharma Traders",
			Address: "14 Mill Road",
		},
		MotorVehicleNo:  "KA01AB1234",
		DeliveryAddress: "Warehouse 3",
		Items: []invoicedomain.ItemInput{
			{Name: "Basmati Rice", NumBags: 10, BagWeightKg: 50, RatePerBag: f(100)},
			{Name: "Wheat Flour", NumBags: 4, RatePerKg: f(2)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "IB00101", resp.Invoice.InvoiceNo)
	assert.Equal(t, int64(7), resp.Invoice.UserID)
	assert.Equal(t, 1400.0, resp.Invoice.TotalAmount)
	assert.Equal(t, 0.0, resp.Invoice.DiscountAmount)
	assert.Equal(t, 1400.0, resp.Invoice.GrandTotal)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 500.0, resp.Items[0].QuantityKg)
	assert.Equal(t, 1000.0, resp.Items[0].Amount)
	// Second item priced per kg with the default 50kg bag weight.
	assert.Equal(t, 200.0, resp.Items[1].QuantityKg)
	assert.Equal(t, 400.0, resp.Items[1].Amount)
	assert.Len(t, resp.Items[0].HSNCode, 8)

	assert.Equal(t, int64(102), counterNextNo(t, db))

	var clientCount, productCount int64
	require.NoError(t, db.Model(&clientdomain.Client{}).Count(&clientCount).Error)
	require.NoError(t, db.Model(&catalogdomain.Product{}).Count(&productCount).Error)
	assert.Equal(t, int64(1), clientCount)
	assert.Equal(t, int64(2), productCount)
}

func TestCreateInvoiceSequentialNumbers(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	req := invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Repeat Client"},
		Items:  []invoicedomain.ItemInput{{Name: "Jute Bags", NumBags: 1, RatePerBag: f(10)}},
	}

	first, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "IB00101", first.Invoice.InvoiceNo)
	assert.Equal(t, "IB00102", second.Invoice.InvoiceNo)
}

func TestCreateInvoiceConcurrentCreatorsGetDistinctNumbers(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	const creators = 10

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
	)
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
				UserID: 1,
				Client: &invoicedomain.ClientInput{Name: fmt.Sprintf("Concurrent Client %d", i)},
				Items:  []invoicedomain.ItemInput{{Name: fmt.Sprintf("Concurrent Product %d", i), NumBags: 1, RatePerBag: f(10)}},
			})
			if err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			mu.Lock()
			numbers[resp.Invoice.InvoiceNo] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	// Every creator gets its own sequence value and the counter lands
	// exactly N past the start: no duplicates, no double advances.
	assert.Len(t, numbers, creators)
	assert.Equal(t, int64(101+creators), counterNextNo(t, db))

	var invoiceCount int64
	require.NoError(t, db.Model(&invoicedomain.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(creators), invoiceCount)
}

func TestCreateInvoiceNumberWidensPastPadWidth(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 100000)

	resp, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Overflow Client"},
		Items:  []invoicedomain.ItemInput{{Name: "Salt", NumBags: 1, RatePerBag: f(5)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "IB100000", resp.Invoice.InvoiceNo)
}

func TestCreateInvoiceHeaderDiscount(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	resp, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID:          1,
		Client:          &invoicedomain.ClientInput{Name: "Discount Client"},
		DiscountPercent: 10,
		Items:           []invoicedomain.ItemInput{{Name: "Sugar", NumBags: 10, BagWeightKg: 50, RatePerBag: f(100)}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, resp.Invoice.TotalAmount)
	assert.Equal(t, 100.0, resp.Invoice.DiscountAmount)
	assert.Equal(t, 900.0, resp.Invoice.GrandTotal)
}

func TestCreateInvoiceExistingClient(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	existing := clientdomain.Client{ID: node.Generate(), Name: "Known Client"}
	require.NoError(t, db.Create(&existing).Error)

	resp, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID:   1,
		ClientID: existing.ID,
		Items:    []invoicedomain.ItemInput{{Name: "Maize", NumBags: 2, RatePerBag: f(50)}},
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, resp.Invoice.ClientID)

	var clientCount int64
	require.NoError(t, db.Model(&clientdomain.Client{}).Count(&clientCount).Error)
	assert.Equal(t, int64(1), clientCount)
}

func TestCreateInvoiceProductResolutionIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	req := invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Same Product Client"},
		Items:  []invoicedomain.ItemInput{{Name: "Turmeric", NumBags: 1, RatePerBag: f(10)}},
	}

	first, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Items[0].ProductID, second.Items[0].ProductID)

	var productCount int64
	require.NoError(t, db.Model(&catalogdomain.Product{}).Count(&productCount).Error)
	assert.Equal(t, int64(1), productCount)
}

func TestCreateInvoiceMissingClient(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	_, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Items:  []invoicedomain.ItemInput{{Name: "Rice", NumBags: 1, RatePerBag: f(10)}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrMissingClient)
	assert.Equal(t, int64(101), counterNextNo(t, db))
}

func TestCreateInvoiceUnidentifiableItemRejected(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	_, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Client"},
		Items: []invoicedomain.ItemInput{
			{Name: "Rice", NumBags: 1, RatePerBag: f(10)},
			{NumBags: 3},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrMissingProductName)

	var invoiceCount int64
	require.NoError(t, db.Model(&invoicedomain.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(0), invoiceCount)
	assert.Equal(t, int64(101), counterNextNo(t, db))
}

type failingResolver struct {
	failAfter int
	calls     int
}

func (r *failingResolver) Resolve(ctx context.Context, tx *gorm.DB, in catalogdomain.ResolveInput) (catalogdomain.Resolution, error) {
	r.calls++
	if r.calls > r.failAfter {
		return catalogdomain.Resolution{}, errors.New("catalog unavailable")
	}
	node, _ := snowflake.NewNode(3)
	return catalogdomain.Resolution{ProductID: node.Generate(), HSNCode: "12345678"}, nil
}

func TestCreateInvoiceRollsBackWholeTransaction(t *testing.T) {
	db := openTestDB(t)
	seedTestCounter(t, db, 101)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Invoicing: config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig()),
		Clients:   clientrepo.Provide(),
		Catalog:   &failingResolver{failAfter: 1},
	})

	_, err = svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Rollback Client"},
		Items: []invoicedomain.ItemInput{
			{Name: "Rice", NumBags: 1, RatePerBag: f(10)},
			{Name: "Wheat", NumBags: 1, RatePerBag: f(10)},
		},
	})
	require.Error(t, err)

	// Nothing from the failed creation may survive: no header, no
	// items, no inline client, and no consumed sequence value.
	var invoiceCount, itemCount, clientCount int64
	require.NoError(t, db.Model(&invoicedomain.Invoice{}).Count(&invoiceCount).Error)
	require.NoError(t, db.Model(&invoicedomain.InvoiceItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&clientdomain.Client{}).Count(&clientCount).Error)
	assert.Equal(t, int64(0), invoiceCount)
	assert.Equal(t, int64(0), itemCount)
	assert.Equal(t, int64(0), clientCount)
	assert.Equal(t, int64(101), counterNextNo(t, db))
}

func TestCreateInvoiceCounterUninitialized(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)

	_, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Client"},
		Items:  []invoicedomain.ItemInput{{Name: "Rice", NumBags: 1, RatePerBag: f(10)}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrCounterUninitialized)

	var invoiceCount int64
	require.NoError(t, db.Model(&invoicedomain.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(0), invoiceCount)
}

func TestReplaceItemsRewritesInvoice(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	created, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Replace Client"},
		Items: []invoicedomain.ItemInput{
			{Name: "Rice", NumBags: 10, BagWeightKg: 50, RatePerBag: f(100)},
		},
	})
	require.NoError(t, err)

	updated, err := svc.ReplaceItems(context.Background(), invoicedomain.ReplaceInvoiceItemsRequest{
		InvoiceID:       created.Invoice.ID,
		MotorVehicleNo:  "KA05XY9876",
		DiscountPercent: 10,
		Items: []invoicedomain.ItemInput{
			{Name: "Wheat", NumBags: 5, BagWeightKg: 40, RatePerBag: f(60)},
			{Name: "Maize", NumBags: 2, RatePerKg: f(1)},
		},
	})
	require.NoError(t, err)

	// Number and client survive; items and totals are rewritten.
	assert.Equal(t, created.Invoice.InvoiceNo, updated.Invoice.InvoiceNo)
	assert.Equal(t, created.Invoice.ClientID, updated.Invoice.ClientID)
	assert.Equal(t, "KA05XY9876", updated.Invoice.MotorVehicleNo)
	assert.Equal(t, 400.0, updated.Invoice.TotalAmount)
	assert.Equal(t, 40.0, updated.Invoice.DiscountAmount)
	assert.Equal(t, 360.0, updated.Invoice.GrandTotal)
	require.Len(t, updated.Items, 2)

	var itemCount int64
	require.NoError(t, db.Model(&invoicedomain.InvoiceItem{}).
		Where("invoice_id = ?", created.Invoice.ID).
		Count(&itemCount).Error)
	assert.Equal(t, int64(2), itemCount)
	assert.Equal(t, int64(102), counterNextNo(t, db))
}

func TestReplaceItemsNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	_, err = svc.ReplaceItems(context.Background(), invoicedomain.ReplaceInvoiceItemsRequest{
		InvoiceID: node.Generate(),
		Items:     []invoicedomain.ItemInput{{Name: "Rice", NumBags: 1, RatePerBag: f(10)}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestGetByIDReturnsItemsInOrder(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	created, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Get Client"},
		Items: []invoicedomain.ItemInput{
			{Name: "Rice", NumBags: 1, RatePerBag: f(10)},
			{Name: "Wheat", NumBags: 2, RatePerBag: f(20)},
		},
	})
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), invoicedomain.GetInvoiceRequest{ID: created.Invoice.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Invoice.InvoiceNo, got.Invoice.InvoiceNo)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Rice", got.Items[0].Description)
	assert.Equal(t, "Wheat", got.Items[1].Description)
}

func TestGetByIDNotFound(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), invoicedomain.GetInvoiceRequest{ID: node.Generate()})
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestCreateInvoiceZeroQuantityItemSucceeds(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	resp, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID: 1,
		Client: &invoicedomain.ClientInput{Name: "Lenient Client"},
		Items:  []invoicedomain.ItemInput{{Name: "Empty Line"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 0.0, resp.Items[0].QuantityKg)
	assert.Equal(t, 0.0, resp.Items[0].Amount)
	assert.Equal(t, 0.0, resp.Invoice.GrandTotal)
}

func TestListInvoicesPaginates(t *testing.T) {
	db := openTestDB(t)
	svc := setupInvoiceService(t, db)
	seedTestCounter(t, db, 101)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
			UserID: 1,
			Client: &invoicedomain.ClientInput{Name: fmt.Sprintf("List Client %d", i)},
			Items:  []invoicedomain.ItemInput{{Name: "Rice", NumBags: 1, RatePerBag: f(10)}},
		})
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Invoices, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	rest, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{
		PageSize:  2,
		PageToken: page.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, rest.Invoices, 1)
	assert.False(t, rest.HasMore)
}

func TestSeedCounterOnlyWhenEmpty(t *testing.T) {
	db := openTestDB(t)

	cfg := config.Config{CounterPrefix: "IB", CounterStart: 101}
	require.NoError(t, SeedCounter(cfg, db, zap.NewNop()))
	assert.Equal(t, int64(101), counterNextNo(t, db))

	// A second run must not reset an advanced counter.
	require.NoError(t, db.Model(&invoicedomain.InvoiceCounter{}).
		Where("id = ?", invoicedomain.CounterRowID).
		Update("next_no", 205).Error)
	require.NoError(t, SeedCounter(cfg, db, zap.NewNop()))
	assert.Equal(t, int64(205), counterNextNo(t, db))
}
