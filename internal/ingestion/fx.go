package ingestion

import (
	"github.com/smallbiznis/canopact/internal/ingestion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingestion.service",
	fx.Provide(service.New),
)
