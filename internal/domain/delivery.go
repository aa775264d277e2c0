package domain

import "time"

// DeliveryStatus represents the lifecycle status of a delivery request.
type DeliveryStatus string

// List of possible delivery request statuses
const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAccepted  DeliveryStatus = "accepted"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// DeliveryRequest is the transport task derived from a delivery-mode order.
// DriverID is nil exactly while Status is pending; once claimed it never
// changes hands.
type DeliveryRequest struct {
	ID                string
	OrderID           string
	Pickup            Address
	Dropoff           Address
	Status            DeliveryStatus
	DriverID          *int64
	ETA               *time.Time
	CustomerConfirmed bool
	DriverConfirmed   bool
	CreatedAt         time.Time
	CompletedAt       *time.Time
}

var deliveryPath = map[DeliveryStatus]DeliveryStatus{
	DeliveryPending:   DeliveryAccepted,
	DeliveryAccepted:  DeliveryPickedUp,
	DeliveryPickedUp:  DeliveryInTransit,
	DeliveryInTransit: DeliveryDelivered,
}

// Prev returns the status that must be current for s to be entered.
func (s DeliveryStatus) Prev() (DeliveryStatus, bool) {
	for from, to := range deliveryPath {
		if to == s {
			return from, true
		}
	}
	return "", false
}

// Terminal reports whether no further transitions are allowed.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// Valid checks if the DeliveryStatus is one of the defined values.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryAccepted, DeliveryPickedUp,
		DeliveryInTransit, DeliveryDelivered, DeliveryCancelled:
		return true
	}
	return false
}

// AssignedTo reports whether the request is held by the given driver.
func (d *DeliveryRequest) AssignedTo(driverID int64) bool {
	return d.DriverID != nil && *d.DriverID == driverID
}
