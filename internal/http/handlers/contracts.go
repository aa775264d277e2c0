package handlers

import (
	"context"

	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/service/dispatch"
	"agromarket-dispatch/internal/service/drivers"
	"agromarket-dispatch/internal/service/orders"
	"agromarket-dispatch/internal/service/settlement"
)

type orderUsecase interface {
	Create(ctx context.Context, in orders.CreateInput) (*domain.Order, error)
	Advance(ctx context.Context, orderID string, next domain.OrderStatus, actor domain.Actor) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
}

// NewOrderUsecase wires an order Service into an orderUsecase.
func NewOrderUsecase(svc *orders.Service) orderUsecase {
	return svc
}

type dispatchUsecase interface {
	ListOpen(ctx context.Context, driverID int64) ([]domain.DeliveryRequest, error)
	Claim(ctx context.Context, requestID string, driverID int64) (*domain.DeliveryRequest, error)
	Advance(ctx context.Context, requestID string, driverID int64, next domain.DeliveryStatus) (*domain.DeliveryRequest, error)
}

// NewDispatchUsecase wires a dispatch Service into a dispatchUsecase.
func NewDispatchUsecase(svc *dispatch.Service) dispatchUsecase {
	return svc
}

type driverUsecase interface {
	Get(ctx context.Context, id int64) (*domain.Driver, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Driver, error)
	Create(ctx context.Context, d *domain.Driver) (int64, error)
	UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error)
}

// NewDriverUsecase wires a driver Service into a driverUsecase.
func NewDriverUsecase(svc *drivers.Service) driverUsecase {
	return svc
}

type settlementUsecase interface {
	ConfirmByCustomer(ctx context.Context, requestID, customerID string) error
	GetSettlement(ctx context.Context, requestID string) (*domain.SettlementRecord, error)
	RateDriver(ctx context.Context, requestID, customerID string, rating int) error
}

// NewSettlementUsecase wires a settlement Service into a settlementUsecase.
func NewSettlementUsecase(svc *settlement.Service) settlementUsecase {
	return svc
}
