package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/indigobills/indigobills/internal/config"
	"github.com/indigobills/indigobills/internal/migration"
	"github.com/indigobills/indigobills/internal/observability"
	"github.com/indigobills/indigobills/internal/server"
	"github.com/indigobills/indigobills/pkg/db"
	"github.com/indigobills/indigobills/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,

		// HTTP server plus the domain modules it aggregates
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
