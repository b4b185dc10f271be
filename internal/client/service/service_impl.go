package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/indigobills/indigobills/internal/client/domain"
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

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("client.service"),
		genID:     p.GenID,
		invoicing: p.Invoicing,
		repo:      p.Repo,
	}
}

// Create inserts unconditionally. Clients are intentionally not
// deduplicated by name or address; the search endpoint exists so
// callers can reuse an existing row before creating a new one.
func (s *Service) Create(ctx context.Context, req domain.CreateClientRequest) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:             s.genID.Generate(),
		Name:           name,
		Address:        strings.TrimSpace(req.Address),
		MotorVehicleNo: strings.TrimSpace(req.MotorVehicleNo),
		GSTIN:          strings.TrimSpace(req.GSTIN),
		Phone:          strings.TrimSpace(req.Phone),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, err
	}

	return client, nil
}

// Search matches the query as a substring of name or address. An empty
// query returns an empty result rather than the whole table.
func (s *Service) Search(ctx context.Context, req domain.SearchClientRequest) ([]domain.Client, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return []domain.Client{}, nil
	}

	limit := s.invoicing.Get().ClientSearchLimit
	items, err := s.repo.Search(ctx, s.db, query, limit)
	if err != nil {
		return nil, err
	}

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}
	return clients, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetClientRequest) (domain.Client, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Client{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *item, nil
}
