package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
)

// MilesToKm is the conversion applied to unit expenses declared in miles.
const MilesToKm = 1.609

const UnitMiles = "mi"

// Lookup is a route waiting for a distance, joined with the unit fields of its expense.
type Lookup struct {
	ExpenseID     int64
	Category      expensedomain.Category
	RouteCategory routedomain.RouteCategory
	Origin        *string
	Destination   *string
	ReturnType    *string
	UnitCount     *float64
	Unit          *string
}

// Endpoints returns origin and destination, or ErrMissingEndpoints when either is absent.
func (l Lookup) Endpoints() (string, string, error) {
	if l.Origin == nil || l.Destination == nil {
		return "", "", ErrMissingEndpoints
	}
	if strings.TrimSpace(*l.Origin) == "" || strings.TrimSpace(*l.Destination) == "" {
		return "", "", ErrMissingEndpoints
	}
	return *l.Origin, *l.Destination, nil
}

func (l Lookup) IsRoundTrip() bool {
	if l.ReturnType == nil {
		return false
	}
	return routedomain.IsReturn(*l.ReturnType)
}

// Resolver turns a lookup into a one-way distance in kilometres.
type Resolver interface {
	Name() string
	Category() routedomain.RouteCategory
	Resolve(ctx context.Context, lookup Lookup) (float64, error)
}

// Cache stores resolved one-way distances between two places.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, km float64, ttl time.Duration) error
}

var (
	ErrUnresolvable     = errors.New("unresolvable_distance")
	ErrMissingEndpoints = errors.New("missing_endpoints")
	ErrMissingUnitCount = errors.New("missing_unit_count")
	ErrNoResolver       = errors.New("no_resolver")
)

// UnresolvableError carries the provider detail of a failed lookup.
type UnresolvableError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *UnresolvableError) Error() string {
	msg := "unresolvable_distance: " + e.Provider + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvableError) Is(target error) bool {
	return target == ErrUnresolvable
}

func (e *UnresolvableError) Unwrap() error {
	return e.Err
}

func Unresolvable(provider, reason string, err error) error {
	return &UnresolvableError{Provider: provider, Reason: reason, Err: err}
}
