package dispatch

import (
	"fmt"
	"time"

	"agromarket-dispatch/internal/domain"
)

type defaultETAFactory struct{}

// NewETAFactory - creates a new ETAFactory.
func NewETAFactory() ETAFactory {
	return defaultETAFactory{}
}

// speedKmh is the assumed travel speed per transport type.
func speedKmh(transport domain.TransportType) (float64, error) {
	switch transport {
	case domain.TransportFoot:
		return 5, nil
	case domain.TransportScooter:
		return 15, nil
	case domain.TransportCar:
		return 30, nil
	default:
		return 0, fmt.Errorf("unknown transport type: %s", transport)
	}
}

// ETA returns the estimated arrival time for covering distanceKm with the
// given transport, starting at now.
func (defaultETAFactory) ETA(transport domain.TransportType, distanceKm float64, now time.Time) (time.Time, error) {
	speed, err := speedKmh(transport)
	if err != nil {
		return time.Time{}, err
	}
	travel := time.Duration(distanceKm / speed * float64(time.Hour))
	if travel < 5*time.Minute {
		travel = 5 * time.Minute
	}
	return now.Add(travel), nil
}
