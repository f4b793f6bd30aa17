package distance

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
)

const ProviderDistance24 = "distance24"

type distance24Route struct {
	Distance  float64       `json:"distance"`
	Distances []interface{} `json:"distances"`
}

// Distance24 resolves air journeys as the great-circle distance between two places.
type Distance24 struct {
	baseURL string
	client  *http.Client
}

func NewDistance24(cfg Config) *Distance24 {
	return &Distance24{
		baseURL: strings.TrimSpace(cfg.AirURL),
		client:  newHTTPClient(cfg.Timeout),
	}
}

func (d *Distance24) Name() string { return ProviderDistance24 }

func (d *Distance24) Category() routedomain.RouteCategory { return routedomain.RouteCategoryAir }

func (d *Distance24) Resolve(ctx context.Context, lookup distancedomain.Lookup) (float64, error) {
	origin, destination, err := lookup.Endpoints()
	if err != nil {
		return 0, err
	}
	if d.baseURL == "" {
		return 0, distancedomain.Unresolvable(ProviderDistance24, "url not configured", nil)
	}

	params := url.Values{}
	params.Set("stops", origin+"|"+strings.TrimLeft(destination, " \t"))

	var route distance24Route
	if err := getJSON(ctx, d.client, withQuery(d.baseURL, params), &route); err != nil {
		return 0, distancedomain.Unresolvable(ProviderDistance24, "request failed", err)
	}
	if len(route.Distances) == 0 {
		return 0, distancedomain.Unresolvable(ProviderDistance24, "no distances", nil)
	}
	return route.Distance, nil
}
