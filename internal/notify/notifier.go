package notify

import "context"

// Event types emitted to counterparties.
const (
	EventOrderPlaced       = "order_placed"
	EventOrderConfirmed    = "order_confirmed"
	EventOrderPreparing    = "order_preparing"
	EventOrderReady        = "order_ready"
	EventOrderCancelled    = "order_cancelled"
	EventOrderDelivered    = "order_delivered"
	EventDeliveryClaimed   = "delivery_claimed"
	EventDeliveryPickedUp  = "delivery_picked_up"
	EventDeliveryInTransit = "delivery_in_transit"
	EventDeliveryDelivered = "delivery_delivered"
	EventSettlementPaid    = "settlement_paid"
)

// Notifier informs a counterparty about a state change. Implementations are
// fire-and-forget: a failed emission is logged and counted, never returned,
// so it can never roll back a committed state write.
type Notifier interface {
	Notify(ctx context.Context, recipient, eventType string, payload any)
}

// Nop returns a Notifier that drops everything. Used in tests.
func Nop() Notifier { return nop{} }

type nop struct{}

func (nop) Notify(context.Context, string, string, any) {}

var _ Notifier = nop{}
