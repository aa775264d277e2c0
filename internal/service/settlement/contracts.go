package settlement

import (
	"context"
	"time"

	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/ports/fulfilltx"
)

// txRunner runs the confirm-and-settle join atomically.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx fulfilltx.Repository) error) error
}

// requestReader reads delivery requests outside a transaction.
type requestReader interface {
	GetByID(ctx context.Context, id string) (*domain.DeliveryRequest, error)
	ListUnconfirmedBefore(ctx context.Context, cutoff time.Time) ([]domain.DeliveryRequest, error)
}

// orderReader resolves the owning order for authorization checks.
type orderReader interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
}

// settlementReader reads settlement records.
type settlementReader interface {
	GetByRequestID(ctx context.Context, requestID string) (*domain.SettlementRecord, error)
}

// ratingRepository folds customer ratings into driver statistics.
type ratingRepository interface {
	ApplyRating(ctx context.Context, driverID int64, rating int) error
}

// counter is a subset of prometheus.Counter.
type counter interface {
	Inc()
}
