package domain

import "time"

type (
	// OrderStatus represents the lifecycle status of a marketplace order.
	OrderStatus string
	// FulfillmentMode says whether the buyer collects the order or it is
	// routed through the dispatch engine.
	FulfillmentMode string
)

// List of possible order statuses
const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// List of possible fulfillment modes
const (
	ModePickup   FulfillmentMode = "pickup"
	ModeDelivery FulfillmentMode = "delivery"
)

// Order is a purchase contract between buyer and seller. TotalAmount is in
// the minor unit of Currency.
type Order struct {
	ID              string
	BuyerID         string
	SellerID        string
	TotalAmount     int64
	Currency        string
	Mode            FulfillmentMode
	Status          OrderStatus
	PickupAddress   Address
	DeliveryAddress *Address
	CreatedAt       time.Time
}

var orderPath = map[OrderStatus]OrderStatus{
	OrderPendingPayment: OrderConfirmed,
	OrderConfirmed:      OrderPreparing,
	OrderPreparing:      OrderReady,
	OrderReady:          OrderDelivered,
}

// Prev returns the status that must be current for s to be entered, along
// with whether s is reachable on the forward path at all.
func (s OrderStatus) Prev() (OrderStatus, bool) {
	for from, to := range orderPath {
		if to == s {
			return from, true
		}
	}
	return "", false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Valid checks if the OrderStatus is one of the defined values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPendingPayment, OrderConfirmed, OrderPreparing, OrderReady,
		OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Valid checks if the FulfillmentMode is one of the defined values.
func (m FulfillmentMode) Valid() bool {
	return m == ModePickup || m == ModeDelivery
}

// Address is a located point with a human-readable line and contact phone.
type Address struct {
	Lat   float64
	Lon   float64
	Line  string
	Phone string
}
