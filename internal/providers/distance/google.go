package distance

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
)

const ProviderGoogle = "google"

type googleMatrix struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// Google resolves ground journeys through the Distance Matrix API, driving mode.
type Google struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewGoogle(cfg Config) *Google {
	return &Google{
		baseURL: strings.TrimSpace(cfg.GoogleURL),
		key:     strings.TrimSpace(cfg.GoogleKey),
		client:  newHTTPClient(cfg.Timeout),
	}
}

func (g *Google) Name() string { return ProviderGoogle }

func (g *Google) Category() routedomain.RouteCategory { return routedomain.RouteCategoryGround }

func (g *Google) Resolve(ctx context.Context, lookup distancedomain.Lookup) (float64, error) {
	origin, destination, err := lookup.Endpoints()
	if err != nil {
		return 0, err
	}
	if g.baseURL == "" {
		return 0, distancedomain.Unresolvable(ProviderGoogle, "url not configured", nil)
	}

	params := url.Values{}
	params.Set("units", "metric")
	params.Set("mode", "driving")
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("key", g.key)

	var matrix googleMatrix
	if err := getJSON(ctx, g.client, withQuery(g.baseURL, params), &matrix); err != nil {
		return 0, distancedomain.Unresolvable(ProviderGoogle, "request failed", err)
	}
	if matrix.Status != "OK" {
		return 0, distancedomain.Unresolvable(ProviderGoogle, "status "+matrix.Status, nil)
	}
	// One origin and one destination were sent, so anything but a 1x1 matrix is unusable.
	if len(matrix.Rows) != 1 || len(matrix.Rows[0].Elements) != 1 {
		return 0, distancedomain.Unresolvable(ProviderGoogle, "unexpected matrix shape", nil)
	}
	element := matrix.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, distancedomain.Unresolvable(ProviderGoogle, "element status "+element.Status, nil)
	}
	return element.Distance.Value / 1000, nil
}

func withQuery(base string, params url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	return base + sep + params.Encode()
}
