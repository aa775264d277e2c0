package kafka

import (
	"strings"
	"time"

	"agromarket-dispatch/internal/service/payments"
)

// EventDTO is the wire shape of a payment outcome message.
type EventDTO struct {
	OrderID         string      `json:"order_id"`
	Status          string      `json:"status"`
	BuyerID         string      `json:"buyer_id"`
	SellerID        string      `json:"seller_id"`
	Amount          int64       `json:"amount"`
	Currency        string      `json:"currency"`
	Mode            string      `json:"mode"`
	PickupAddress   AddressDTO  `json:"pickup_address"`
	DeliveryAddress *AddressDTO `json:"delivery_address,omitempty"`
	OccurredAt      time.Time   `json:"occurred_at"`
}

// AddressDTO is the wire shape of an address.
type AddressDTO struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Line  string  `json:"line"`
	Phone string  `json:"phone"`
}

// ToDomain converts EventDTO to payments.Event.
func ToDomain(dto EventDTO) payments.Event {
	ev := payments.Event{
		OrderID:       strings.TrimSpace(dto.OrderID),
		Status:        strings.TrimSpace(dto.Status),
		BuyerID:       strings.TrimSpace(dto.BuyerID),
		SellerID:      strings.TrimSpace(dto.SellerID),
		Amount:        dto.Amount,
		Currency:      strings.TrimSpace(dto.Currency),
		Mode:          strings.TrimSpace(dto.Mode),
		PickupAddress: toAddressPayload(dto.PickupAddress),
		OccurredAt:    dto.OccurredAt,
	}
	if dto.DeliveryAddress != nil {
		addr := toAddressPayload(*dto.DeliveryAddress)
		ev.DeliveryAddress = &addr
	}
	return ev
}

func toAddressPayload(a AddressDTO) payments.AddressPayload {
	return payments.AddressPayload{
		Lat:   a.Lat,
		Lon:   a.Lon,
		Line:  strings.TrimSpace(a.Line),
		Phone: strings.TrimSpace(a.Phone),
	}
}
