package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/canopact/internal/aggregation"
	"github.com/smallbiznis/canopact/internal/cache"
	"github.com/smallbiznis/canopact/internal/clock"
	"github.com/smallbiznis/canopact/internal/company"
	"github.com/smallbiznis/canopact/internal/config"
	"github.com/smallbiznis/canopact/internal/distance"
	"github.com/smallbiznis/canopact/internal/emissions"
	"github.com/smallbiznis/canopact/internal/expense"
	"github.com/smallbiznis/canopact/internal/ingestion"
	"github.com/smallbiznis/canopact/internal/migration"
	"github.com/smallbiznis/canopact/internal/observability"
	"github.com/smallbiznis/canopact/internal/providers"
	"github.com/smallbiznis/canopact/internal/ratelimit"
	"github.com/smallbiznis/canopact/internal/route"
	"github.com/smallbiznis/canopact/internal/scheduler"
	"github.com/smallbiznis/canopact/internal/server"
	"github.com/smallbiznis/canopact/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,
		cache.Module,

		// External APIs
		providers.Module,

		// Pipeline
		company.Module,
		expense.Module,
		ingestion.Module,
		route.Module,
		distance.Module,
		emissions.Module,
		aggregation.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
