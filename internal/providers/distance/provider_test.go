package distance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGoogleResolve(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"units":        q.Get("units"),
			"mode":         q.Get("mode"),
			"origins":      q.Get("origins"),
			"destinations": q.Get("destinations"),
			"key":          q.Get("key"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":12500}}]}]}`))
	}))
	defer srv.Close()

	g := NewGoogle(Config{GoogleURL: srv.URL, GoogleKey: "secret", Timeout: time.Second})
	km, err := g.Resolve(context.Background(), distancedomain.Lookup{
		Origin:      ptr("London"),
		Destination: ptr(" Leeds"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, km, 1e-9)
	assert.Equal(t, map[string]string{
		"units":        "metric",
		"mode":         "driving",
		"origins":      "London",
		"destinations": " Leeds",
		"key":          "secret",
	}, gotQuery)
}

func TestGoogleRejectsNonOK(t *testing.T) {
	cases := map[string]string{
		"top status":     `{"status":"REQUEST_DENIED","rows":[]}`,
		"element status": `{"status":"OK","rows":[{"elements":[{"status":"NOT_FOUND"}]}]}`,
		"empty rows":     `{"status":"OK","rows":[]}`,
		"two rows":       `{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":1000}}]},{"elements":[{"status":"OK","distance":{"value":2000}}]}]}`,
		"two elements":   `{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":1000}},{"status":"OK","distance":{"value":2000}}]}]}`,
		"bad json":       `{"status":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			g := NewGoogle(Config{GoogleURL: srv.URL, Timeout: time.Second})
			_, err := g.Resolve(context.Background(), distancedomain.Lookup{Origin: ptr("A"), Destination: ptr("B")})
			assert.True(t, errors.Is(err, distancedomain.ErrUnresolvable))
		})
	}
}

func TestGoogleNon2xxIsUnresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGoogle(Config{GoogleURL: srv.URL, Timeout: time.Second})
	_, err := g.Resolve(context.Background(), distancedomain.Lookup{Origin: ptr("A"), Destination: ptr("B")})
	assert.ErrorIs(t, err, distancedomain.ErrUnresolvable)
}

func TestGoogleTimeoutIsUnresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewGoogle(Config{GoogleURL: srv.URL, GoogleKey: "secret", Timeout: 20 * time.Millisecond})
	_, err := g.Resolve(context.Background(), distancedomain.Lookup{Origin: ptr("A"), Destination: ptr("B")})
	require.ErrorIs(t, err, distancedomain.ErrUnresolvable)
	assert.NotContains(t, err.Error(), "secret")
}

func TestMissingEndpoints(t *testing.T) {
	g := NewGoogle(Config{GoogleURL: "http://unused"})
	_, err := g.Resolve(context.Background(), distancedomain.Lookup{Origin: ptr("A")})
	assert.ErrorIs(t, err, distancedomain.ErrMissingEndpoints)

	d := NewDistance24(Config{AirURL: "http://unused"})
	_, err = d.Resolve(context.Background(), distancedomain.Lookup{Origin: ptr("A"), Destination: ptr("  ")})
	assert.ErrorIs(t, err, distancedomain.ErrMissingEndpoints)
}

func TestDistance24Resolve(t *testing.T) {
	var stops string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stops = r.URL.Query().Get("stops")
		_, _ = w.Write([]byte(`{"distance":344.6,"distances":[344.6]}`))
	}))
	defer srv.Close()

	d := NewDistance24(Config{AirURL: srv.URL, Timeout: time.Second})
	km, err := d.Resolve(context.Background(), distancedomain.Lookup{Origin: ptr("London"), Destination: ptr(" Paris")})
	require.NoError(t, err)
	assert.Equal(t, 344.6, km)
	assert.Equal(t, "London|Paris", stops)
}

func TestDistance24EmptyDistances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"distance":0,"distances":[]}`))
	}))
	defer srv.Close()

	d := NewDistance24(Config{AirURL: srv.URL, Timeout: time.Second})
	_, err := d.Resolve(context.Background(), distancedomain.Lookup{Origin: ptr("Nowhere"), Destination: ptr("Else")})
	assert.ErrorIs(t, err, distancedomain.ErrUnresolvable)
}

func TestUnitResolve(t *testing.T) {
	u := NewUnit()

	km, err := u.Resolve(context.Background(), distancedomain.Lookup{UnitCount: ptr(10.0), Unit: ptr("mi")})
	require.NoError(t, err)
	assert.InDelta(t, 16.09, km, 1e-9)

	km, err = u.Resolve(context.Background(), distancedomain.Lookup{UnitCount: ptr(10.0), Unit: ptr("km")})
	require.NoError(t, err)
	assert.Equal(t, 10.0, km)

	_, err = u.Resolve(context.Background(), distancedomain.Lookup{Unit: ptr("mi")})
	assert.ErrorIs(t, err, distancedomain.ErrMissingUnitCount)
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "http://x/json?a=1", withQuery("http://x/json", map[string][]string{"a": {"1"}}))
	assert.Equal(t, "http://x/json?a=1", withQuery("http://x/json?", map[string][]string{"a": {"1"}}))
	assert.Equal(t, "http://x/json?v=2&a=1", withQuery("http://x/json?v=2", map[string][]string{"a": {"1"}}))
}
