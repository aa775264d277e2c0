package payments

import (
	"context"
	"errors"

	"agromarket-dispatch/internal/apperr"
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/logx"
	"agromarket-dispatch/internal/service/orders"
)

// OrdersPort is the slice of the order service the intake drives.
type OrdersPort interface {
	Create(ctx context.Context, in orders.CreateInput) (*domain.Order, error)
	Cancel(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error)
}

// Processor turns payment outcomes into order lifecycle calls. Replays are
// absorbed here so the broker can redeliver at-least-once.
type Processor struct {
	orders  OrdersPort
	logger  logx.Logger
	factory *actionFactory
}

// NewProcessor creates a new payments.Processor.
func NewProcessor(ordersSvc OrdersPort, logger logx.Logger) *Processor {
	p := &Processor{
		orders: ordersSvc,
		logger: logger,
	}
	p.factory = newActionFactory(p.onPaid, p.onCancelled)
	return p
}

// Handle processes a single payment Event. Unknown statuses are skipped.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	if p.factory == nil {
		return nil
	}
	fn, ok := p.factory.get(e.Status)
	if !ok {
		p.logger.Debug("payment event skipped",
			logx.String("order_id", e.OrderID),
			logx.String("status", e.Status),
		)
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onPaid(ctx context.Context, e Event) error {
	in := orders.CreateInput{
		ID:            e.OrderID,
		BuyerID:       e.BuyerID,
		SellerID:      e.SellerID,
		TotalAmount:   e.Amount,
		Currency:      e.Currency,
		Mode:          domain.FulfillmentMode(e.Mode),
		PickupAddress: toAddress(e.PickupAddress),
	}
	if e.DeliveryAddress != nil {
		addr := toAddress(*e.DeliveryAddress)
		in.DeliveryAddress = &addr
	}

	_, err := p.orders.Create(ctx, in)
	if errors.Is(err, apperr.ErrConflict) {
		// redelivery of an order we already hold
		return nil
	}
	return err
}

func (p *Processor) onCancelled(ctx context.Context, e Event) error {
	_, err := p.orders.Cancel(ctx, e.OrderID, domain.Actor{Role: domain.RoleService})
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case errors.Is(err, apperr.ErrInvalidTransition):
		// already terminal
		return nil
	}
	return err
}

func toAddress(a AddressPayload) domain.Address {
	return domain.Address{
		Lat:   a.Lat,
		Lon:   a.Lon,
		Line:  a.Line,
		Phone: a.Phone,
	}
}
