package route

import (
	"github.com/smallbiznis/canopact/internal/route/repository"
	"github.com/smallbiznis/canopact/internal/route/service"
	"go.uber.org/fx"
)

var Module = fx.Module("route.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
