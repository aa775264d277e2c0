package payments

import "time"

// AddressPayload mirrors a geographic address on the payment event.
type AddressPayload struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Line  string  `json:"line"`
	Phone string  `json:"phone"`
}

// Event is a payment outcome published by the payment collaborator.
type Event struct {
	OrderID         string          `json:"order_id"`
	Status          string          `json:"status"`
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Mode            string          `json:"mode"`
	PickupAddress   AddressPayload  `json:"pickup_address"`
	DeliveryAddress *AddressPayload `json:"delivery_address,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
