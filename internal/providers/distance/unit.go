package distance

import (
	"context"
	"strings"

	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
)

const ProviderUnit = "unit"

// Unit takes the distance the employee declared on the expense.
type Unit struct{}

func NewUnit() *Unit { return &Unit{} }

func (u *Unit) Name() string { return ProviderUnit }

func (u *Unit) Category() routedomain.RouteCategory { return routedomain.RouteCategoryUnit }

func (u *Unit) Resolve(_ context.Context, lookup distancedomain.Lookup) (float64, error) {
	if lookup.UnitCount == nil {
		return 0, distancedomain.ErrMissingUnitCount
	}
	count := *lookup.UnitCount
	if lookup.Unit != nil && strings.TrimSpace(*lookup.Unit) == distancedomain.UnitMiles {
		return count * distancedomain.MilesToKm, nil
	}
	return count, nil
}
