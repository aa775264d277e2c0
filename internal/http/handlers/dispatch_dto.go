package handlers

import (
	"time"

	"agromarket-dispatch/internal/domain"
)

type advanceDeliveryRequest struct {
	Status string `json:"status"`
}

type deliveryResponse struct {
	ID                string     `json:"id"`
	OrderID           string     `json:"order_id"`
	Status            string     `json:"status"`
	DriverID          *int64     `json:"driver_id,omitempty"`
	Pickup            addressDTO `json:"pickup"`
	Dropoff           addressDTO `json:"dropoff"`
	ETA               *time.Time `json:"eta,omitempty"`
	CustomerConfirmed bool       `json:"customer_confirmed"`
	DriverConfirmed   bool       `json:"driver_confirmed"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func deliveryToResponse(d *domain.DeliveryRequest) deliveryResponse {
	return deliveryResponse{
		ID:                d.ID,
		OrderID:           d.OrderID,
		Status:            string(d.Status),
		DriverID:          d.DriverID,
		Pickup:            addressToDTO(d.Pickup),
		Dropoff:           addressToDTO(d.Dropoff),
		ETA:               d.ETA,
		CustomerConfirmed: d.CustomerConfirmed,
		DriverConfirmed:   d.DriverConfirmed,
		CreatedAt:         d.CreatedAt,
		CompletedAt:       d.CompletedAt,
	}
}

func deliveriesToResponse(list []domain.DeliveryRequest) []deliveryResponse {
	out := make([]deliveryResponse, 0, len(list))
	for i := range list {
		out = append(out, deliveryToResponse(&list[i]))
	}
	return out
}
