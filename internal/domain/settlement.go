package domain

import "time"

// SettlementRecord is the financial outcome of one completed delivery.
// Created exactly once per request, only after both confirmation flags are
// set. DriverShare + PlatformShare always equals Gross.
type SettlementRecord struct {
	RequestID     string
	OrderID       string
	Gross         int64
	DriverShare   int64
	PlatformShare int64
	CreatedAt     time.Time
}

// SplitAmount divides a gross amount (minor units) by the driver share
// percentage. The platform takes the remainder, so the parts sum exactly.
func SplitAmount(gross int64, driverSharePct int64) (driver, platform int64) {
	driver = gross * driverSharePct / 100
	platform = gross - driver
	return driver, platform
}
