package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/indigobills/indigobills/internal/catalog/domain"
	"github.com/indigobills/indigobills/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Invoicing *config.InvoicingConfigHolder
	Repo      domain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	invoicing *config.InvoicingConfigHolder
	repo      domain.Repository
}

func New(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("catalog.service"),
		genID:     p.GenID,
		invoicing: p.Invoicing,
		repo:      p.Repo,
	}
}

func ProvideService(s *Service) domain.Service   { return s }
func ProvideResolver(s *Service) domain.Resolver { return s }

// Resolve implements domain.Resolver inside the caller's transaction.
func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, in domain.ResolveInput) (domain.Resolution, error) {
	// An explicit id is trusted as-is; a stale one surfaces as a
	// foreign-key failure on the item insert, not here.
	if in.ProductID != 0 {
		return domain.Resolution{ProductID: in.ProductID, HSNCode: in.HSNCode}, nil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Resolution{}, domain.ErrMissingName
	}

	existing, err := s.repo.FindByName(ctx, tx, name)
	if err != nil {
		return domain.Resolution{}, err
	}
	if existing != nil {
		return domain.Resolution{ProductID: existing.ID, HSNCode: existing.HSNCode}, nil
	}

	code, err := s.freeHSNCode(ctx, tx)
	if err != nil {
		return domain.Resolution{}, err
	}

	bagWeight := in.BagWeightKg
	if bagWeight <= 0 {
		bagWeight = s.invoicing.Get().DefaultBagWeightKg
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:                 s.genID.Generate(),
		Name:               name,
		HSNCode:            code,
		DefaultBagWeightKg: bagWeight,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, tx, &product); err != nil {
		return domain.Resolution{}, err
	}

	return domain.Resolution{ProductID: product.ID, HSNCode: code, Created: true}, nil
}

// ResolveOrCreate is the standalone endpoint variant: same resolution
// rules, own transaction.
func (s *Service) ResolveOrCreate(ctx context.Context, req domain.ResolveOrCreateRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrMissingName
	}

	var resolved domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.Resolve(ctx, tx, domain.ResolveInput{
			Name:        name,
			BagWeightKg: req.DefaultBagWeightKg,
		})
		if err != nil {
			return err
		}
		product, err := s.repo.FindByID(ctx, tx, res.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		resolved = *product
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return resolved, nil
}

func (s *Service) List(ctx context.Context, _ domain.ListProductRequest) (domain.ListProductResponse, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return domain.ListProductResponse{}, err
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, *item)
	}
	return domain.ListProductResponse{Products: products}, nil
}
