package client

import (
	"github.com/indigobills/indigobills/internal/client/repository"
	"github.com/indigobills/indigobills/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
