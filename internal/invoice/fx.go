package invoice

import (
	"github.com/indigobills/indigobills/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.NewService),
	fx.Invoke(service.SeedCounter),
)
