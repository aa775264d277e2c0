package handlers

import (
	"agromarket-dispatch/internal/domain"
	"agromarket-dispatch/internal/service/orders"
)

func toAddress(a addressDTO) domain.Address {
	return domain.Address{Lat: a.Lat, Lon: a.Lon, Line: a.Line, Phone: a.Phone}
}

func addressToDTO(a domain.Address) addressDTO {
	return addressDTO{Lat: a.Lat, Lon: a.Lon, Line: a.Line, Phone: a.Phone}
}

func createOrderToInput(req createOrderRequest) orders.CreateInput {
	in := orders.CreateInput{
		ID:            req.ID,
		BuyerID:       req.BuyerID,
		SellerID:      req.SellerID,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		Mode:          domain.FulfillmentMode(req.Mode),
		PickupAddress: toAddress(req.PickupAddress),
	}
	if req.DeliveryAddress != nil {
		addr := toAddress(*req.DeliveryAddress)
		in.DeliveryAddress = &addr
	}
	return in
}

func orderToResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		Mode:          string(o.Mode),
		Status:        string(o.Status),
		PickupAddress: addressToDTO(o.PickupAddress),
		CreatedAt:     o.CreatedAt,
	}
	if o.DeliveryAddress != nil {
		addr := addressToDTO(*o.DeliveryAddress)
		resp.DeliveryAddress = &addr
	}
	return resp
}
