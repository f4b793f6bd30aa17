package expensify

import (
	"github.com/smallbiznis/canopact/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.expensify",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	return NewClient(Config{
		URL:     cfg.Expensify.URL,
		Timeout: cfg.Expensify.Timeout,
		Log:     log,
	})
}
