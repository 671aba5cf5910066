//go:build integration
// +build integration

package service_test

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/kjstillabower/weather-relay/internal/testhelpers"
)

// TestForwarder_Lookup_LiveProvider verifies a real lookup and that the second
// identical lookup is served from cache.
func TestForwarder_Lookup_LiveProvider(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	forwarder, _, cleanup := testhelpers.SetupIntegrationForwarder(t, cfg)
	defer cleanup()

	ctx := context.Background()
	first, err := forwarder.Lookup(ctx, "Boston", "2024-01-01")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if first.Failed() {
		t.Fatalf("Lookup() = error record %+v", *first.Error)
	}
	if !bytes.Contains(first.Payload, []byte(`"days"`)) {
		t.Errorf("payload missing daily data: %s", first.Payload)
	}

	second, err := forwarder.Lookup(ctx, "Boston", "2024-01-01")
	if err != nil {
		t.Fatalf("second Lookup() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("second lookup differs from first")
	}
}

// TestForwarder_Lookup_LiveProviderRejectsBadDate verifies that provider rejections
// come back as error records.
func TestForwarder_Lookup_LiveProviderRejectsBadDate(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	forwarder, _, cleanup := testhelpers.SetupIntegrationForwarder(t, cfg)
	defer cleanup()

	got, err := forwarder.Lookup(context.Background(), "Boston", "not-a-date")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !got.Failed() || got.Error.Status < 400 {
		t.Errorf("Lookup() = %+v, want 4xx error record", got)
	}
}
