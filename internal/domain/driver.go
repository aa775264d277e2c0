package domain

import "regexp"

// TransportType represents the transport type of a driver.
type TransportType string

// List of possible driver transport types
const (
	TransportFoot    TransportType = "on_foot"
	TransportScooter TransportType = "scooter"
	TransportCar     TransportType = "car"
)

var allowedTransportTypes = [...]TransportType{
	TransportFoot, TransportScooter, TransportCar,
}

// Valid checks if the TransportType is valid
func (t TransportType) Valid() bool {
	for _, v := range allowedTransportTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Driver is an approved transport agent. The operating zone is a center
// point plus radius in kilometers; it filters what the driver sees in the
// open pool but does not gate claims.
type Driver struct {
	ID            int64
	Name          string
	Phone         string
	Online        bool
	TransportType TransportType
	ZoneLat       float64
	ZoneLon       float64
	RadiusKm      float64
	Completed     int64
	Rating        float64
	RatingCount   int64
	Earnings      int64
}

// PartialDriverUpdate carries optional fields to update a driver.
// A nil field means "do not change" that attribute.
type PartialDriverUpdate struct {
	ID            int64
	Name          *string
	Phone         *string
	Online        *bool
	TransportType *TransportType
	ZoneLat       *float64
	ZoneLon       *float64
	RadiusKm      *float64
}

// rePhone is a regex to validate phone numbers
var rePhone = regexp.MustCompile(`^\+[0-9]{11}$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}
