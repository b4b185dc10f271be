package catalog

import (
	"github.com/indigobills/indigobills/internal/catalog/repository"
	"github.com/indigobills/indigobills/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.ProvideService),
	fx.Provide(service.ProvideResolver),
)
