package aggregation

import (
	"github.com/smallbiznis/canopact/internal/aggregation/repository"
	"github.com/smallbiznis/canopact/internal/aggregation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("aggregation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
