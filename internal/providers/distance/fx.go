package distance

import (
	"github.com/smallbiznis/canopact/internal/config"
	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	"go.uber.org/fx"
)

const resolverGroup = `group:"distance_resolvers"`

var Module = fx.Module("providers.distance",
	fx.Provide(NewFromConfig),
	fx.Provide(
		fx.Annotate(
			func(cfg Config) distancedomain.Resolver { return NewGoogle(cfg) },
			fx.ResultTags(resolverGroup),
		),
		fx.Annotate(
			func(cfg Config) distancedomain.Resolver { return NewDistance24(cfg) },
			fx.ResultTags(resolverGroup),
		),
		fx.Annotate(
			func() distancedomain.Resolver { return NewUnit() },
			fx.ResultTags(resolverGroup),
		),
	),
)

func NewFromConfig(cfg config.Config) Config {
	return Config{
		GoogleURL: cfg.Distance.GoogleURL,
		GoogleKey: cfg.Distance.GoogleKey,
		AirURL:    cfg.Distance.AirURL,
		Timeout:   cfg.Distance.Timeout,
	}
}
