package dispatch

import (
	"testing"
	"time"

	"agromarket-dispatch/internal/domain"
)

func TestETAFactory_Speeds(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := NewETAFactory()

	cases := []struct {
		transport  domain.TransportType
		distanceKm float64
		want       time.Duration
	}{
		{domain.TransportFoot, 10, 2 * time.Hour},
		{domain.TransportScooter, 15, time.Hour},
		{domain.TransportCar, 60, 2 * time.Hour},
	}
	for _, tc := range cases {
		eta, err := f.ETA(tc.transport, tc.distanceKm, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.transport, err)
		}
		if got := eta.Sub(now); got != tc.want {
			t.Fatalf("%s over %.0f km: got %v, want %v", tc.transport, tc.distanceKm, got, tc.want)
		}
	}
}

func TestETAFactory_MinimumFiveMinutes(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eta, err := NewETAFactory().ETA(domain.TransportCar, 0.1, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := eta.Sub(now); got != 5*time.Minute {
		t.Fatalf("got %v, want the 5 minute floor", got)
	}
}

func TestETAFactory_UnknownTransport(t *testing.T) {
	t.Parallel()

	_, err := NewETAFactory().ETA(domain.TransportType("bike"), 1, time.Now())
	if err == nil {
		t.Fatal("expected error for unknown transport")
	}
}
