package config

import (
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewEmissionFactorsHolder),
	fx.Provide(func(h *EmissionFactorsHolder) emissionsdomain.FactorProvider { return h }),
)
