package orders

import (
	"context"

	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/ports/fulfilltx"
)

// ordersRepository defines storage operations required by the state machine.
type ordersRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
}

// txRunner runs the transitions that must move two rows atomically
// (markReady's request creation, cancel's cascade).
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx fulfilltx.Repository) error) error
}
