package emissions

import (
	"github.com/smallbiznis/canopact/internal/emissions/repository"
	"github.com/smallbiznis/canopact/internal/emissions/service"
	"go.uber.org/fx"
)

var Module = fx.Module("emissions.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
