package providers

import (
	"github.com/smallbiznis/canopact/internal/providers/distance"
	"github.com/smallbiznis/canopact/internal/providers/expensify"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	distance.Module,
	expensify.Module,
)
