package handlers

import "time"

type addressDTO struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Line  string  `json:"line"`
	Phone string  `json:"phone,omitempty"`
}

type createOrderRequest struct {
	ID              string      `json:"id,omitempty"`
	BuyerID         string      `json:"buyer_id"`
	SellerID        string      `json:"seller_id"`
	TotalAmount     int64       `json:"total_amount"`
	Currency        string      `json:"currency"`
	Mode            string      `json:"mode"`
	PickupAddress   addressDTO  `json:"pickup_address"`
	DeliveryAddress *addressDTO `json:"delivery_address,omitempty"`
}

type advanceOrderRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID              string      `json:"id"`
	BuyerID         string      `json:"buyer_id"`
	SellerID        string      `json:"seller_id"`
	TotalAmount     int64       `json:"total_amount"`
	Currency        string      `json:"currency"`
	Mode            string      `json:"mode"`
	Status          string      `json:"status"`
	PickupAddress   addressDTO  `json:"pickup_address"`
	DeliveryAddress *addressDTO `json:"delivery_address,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}
