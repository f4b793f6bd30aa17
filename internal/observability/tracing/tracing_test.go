package tracing

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCredentials(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/routes/:expenseId"),
		attribute.String("key", "secret"),
	)
	if len(attrs) != 1 || attrs[0].Key != "http.route" {
		t.Fatalf("expected only http.route, got %v", attrs)
	}
}

func TestSafeErrorRedactsKeys(t *testing.T) {
	err := SafeError(errors.New(`Get "https://maps.example/json?key=abc": timeout`))
	if err == nil || err.Error() != "redacted error" {
		t.Fatalf("expected redacted error, got %v", err)
	}
	plain := errors.New("boom")
	if got := SafeError(plain); got != plain {
		t.Fatalf("expected plain error to pass through")
	}
	if SafeError(nil) != nil {
		t.Fatalf("expected nil")
	}
}
