package fulfilltx

import (
	"context"

	"agromarket-dispatch/internal/domain"
)

// Repository is the set of storage operations available inside one
// fulfillment transaction. Conditional writes return false when the
// WHERE clause matched no row.
type Repository interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
	InsertDeliveryRequest(ctx context.Context, d *domain.DeliveryRequest) error
	GetRequestForUpdate(ctx context.Context, id string) (*domain.DeliveryRequest, error)
	GetRequestByOrderID(ctx context.Context, orderID string) (*domain.DeliveryRequest, error)
	CancelRequest(ctx context.Context, id string) (bool, error)
	SetCustomerConfirmed(ctx context.Context, id string) (bool, error)
	InsertSettlement(ctx context.Context, rec *domain.SettlementRecord) error
	ApplyDriverStats(ctx context.Context, driverID int64, earned int64) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
