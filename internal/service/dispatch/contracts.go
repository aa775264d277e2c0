package dispatch

import (
	"context"
	"time"

	"agromarket-dispatch/internal/domain"
)

// deliveryRepository defines storage operations required by the assignment
// engine. Claim and AdvanceStatus are single conditional writes evaluated
// by the store; losing a race surfaces as apperr.ErrAlreadyClaimed.
type deliveryRepository interface {
	ListPending(ctx context.Context) ([]domain.DeliveryRequest, error)
	GetByID(ctx context.Context, id string) (*domain.DeliveryRequest, error)
	Claim(ctx context.Context, requestID string, driverID int64, eta time.Time) (*domain.DeliveryRequest, error)
	AdvanceStatus(ctx context.Context, requestID string, driverID int64, from, to domain.DeliveryStatus) (*domain.DeliveryRequest, error)
}

// driverDirectory supplies driver profiles (zone, transport, online flag).
type driverDirectory interface {
	Get(ctx context.Context, id int64) (*domain.Driver, error)
}

// orderDirectory resolves the owning order, used to address notifications.
type orderDirectory interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
}

// settler runs the dual-confirmation join after a delivered transition.
type settler interface {
	TrySettle(ctx context.Context, requestID string) error
}

// counter is a subset of prometheus.Counter.
type counter interface {
	Inc()
}

// ETAFactory estimates the arrival time for a claimed request.
type ETAFactory interface {
	ETA(transport domain.TransportType, distanceKm float64, now time.Time) (time.Time, error)
}
