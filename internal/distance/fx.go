package distance

import (
	"github.com/smallbiznis/canopact/internal/distance/repository"
	"github.com/smallbiznis/canopact/internal/distance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("distance.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
