package handlers

import "agromarket-dispatch/internal/domain"

type createDriverRequest struct {
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	TransportType string  `json:"transport_type"`
	ZoneLat       float64 `json:"zone_lat"`
	ZoneLon       float64 `json:"zone_lon"`
	RadiusKm      float64 `json:"radius_km"`
}

type updateDriverRequest struct {
	Name          *string  `json:"name,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Online        *bool    `json:"online,omitempty"`
	TransportType *string  `json:"transport_type,omitempty"`
	ZoneLat       *float64 `json:"zone_lat,omitempty"`
	ZoneLon       *float64 `json:"zone_lon,omitempty"`
	RadiusKm      *float64 `json:"radius_km,omitempty"`
}

type driverResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	Online        bool    `json:"online"`
	TransportType string  `json:"transport_type"`
	ZoneLat       float64 `json:"zone_lat"`
	ZoneLon       float64 `json:"zone_lon"`
	RadiusKm      float64 `json:"radius_km"`
	Completed     int64   `json:"completed"`
	Rating        float64 `json:"rating"`
	RatingCount   int64   `json:"rating_count"`
	Earnings      int64   `json:"earnings"`
}

func createDriverToDomain(req createDriverRequest) domain.Driver {
	return domain.Driver{
		Name:          req.Name,
		Phone:         req.Phone,
		TransportType: domain.TransportType(req.TransportType),
		ZoneLat:       req.ZoneLat,
		ZoneLon:       req.ZoneLon,
		RadiusKm:      req.RadiusKm,
	}
}

func updateDriverToDomain(id int64, req updateDriverRequest) domain.PartialDriverUpdate {
	u := domain.PartialDriverUpdate{
		ID:       id,
		Name:     req.Name,
		Phone:    req.Phone,
		Online:   req.Online,
		ZoneLat:  req.ZoneLat,
		ZoneLon:  req.ZoneLon,
		RadiusKm: req.RadiusKm,
	}
	if req.TransportType != nil {
		t := domain.TransportType(*req.TransportType)
		u.TransportType = &t
	}
	return u
}

func driverToResponse(d *domain.Driver) driverResponse {
	return driverResponse{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.Phone,
		Online:        d.Online,
		TransportType: string(d.TransportType),
		ZoneLat:       d.ZoneLat,
		ZoneLon:       d.ZoneLon,
		RadiusKm:      d.RadiusKm,
		Completed:     d.Completed,
		Rating:        d.Rating,
		RatingCount:   d.RatingCount,
		Earnings:      d.Earnings,
	}
}

func driversToResponse(list []domain.Driver) []driverResponse {
	out := make([]driverResponse, 0, len(list))
	for i := range list {
		out = append(out, driverToResponse(&list[i]))
	}
	return out
}
