package config

import "time"

const defaultPort = 8080

// defaultAuthSecret is a development-only signing key; production deploys
// override it through AUTH_SECRET.
const defaultAuthSecret = "dev-secret-do-not-use"

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "dispatch_db",
}

var defaultKafka = Kafka{
	Brokers:            nil,
	PaymentsTopic:      "payment-events",
	PaymentsGroup:      "dispatch-worker",
	NotificationsTopic: "notifications",
}

// Commission split and confirmation window are product policy values.
var defaultSettlement = Settlement{
	DriverSharePct:  85,
	ConfirmWindow:   48 * time.Hour,
	ResolveInterval: 10 * time.Minute,
}

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       5,
	Burst:      10,
	TTL:        10 * time.Minute,
	MaxBuckets: 10_000,
}

// DefaultPort returns the default HTTP port.
func DefaultPort() int { return defaultPort }

// DefaultAuthSecret returns the default token signing key.
func DefaultAuthSecret() string { return defaultAuthSecret }

// DefaultDB returns the default database settings.
func DefaultDB() DB { return defaultDB }

// DefaultKafka returns the default Kafka settings.
func DefaultKafka() Kafka { return defaultKafka }

// DefaultSettlement returns the default settlement policy.
func DefaultSettlement() Settlement { return defaultSettlement }

// DefaultRateLimit returns the default rate limiter settings.
func DefaultRateLimit() RateLimit { return defaultRateLimit }
