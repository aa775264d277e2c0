package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a PostgreSQL connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Kafka stores broker and topic settings for the worker and the notifier.
type Kafka struct {
	Brokers            []string
	PaymentsTopic      string
	PaymentsGroup      string
	NotificationsTopic string
}

// Settlement stores financial policy values. DriverSharePct is a product
// policy constant, not derived.
type Settlement struct {
	DriverSharePct  int64
	ConfirmWindow   time.Duration
	ResolveInterval time.Duration
}

// RateLimit stores token-bucket settings for the driver polling surface.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof stores pprof server credentials.
type Pprof struct {
	User string
	Pass string
}

// Config stores dispatch service settings.
type Config struct {
	Port       int
	AuthSecret string
	DB         DB
	Kafka      Kafka
	Settlement Settlement
	RateLimit  RateLimit
	Pprof      Pprof
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:       DefaultPort(),
		AuthSecret: DefaultAuthSecret(),
		DB:         DefaultDB(),
		Kafka:      DefaultKafka(),
		Settlement: DefaultSettlement(),
		RateLimit:  DefaultRateLimit(),
	}

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.AuthSecret = envString("AUTH_SECRET", cfg.AuthSecret)

	cfg.DB.Host = envString("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envString("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envString("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = envString("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = envString("POSTGRES_DB", cfg.DB.Name)

	cfg.Kafka.Brokers = envList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.PaymentsTopic = envString("KAFKA_PAYMENTS_TOPIC", cfg.Kafka.PaymentsTopic)
	cfg.Kafka.PaymentsGroup = envString("KAFKA_PAYMENTS_GROUP", cfg.Kafka.PaymentsGroup)
	cfg.Kafka.NotificationsTopic = envString("KAFKA_NOTIFICATIONS_TOPIC", cfg.Kafka.NotificationsTopic)

	cfg.Settlement.DriverSharePct = int64(envInt("SETTLEMENT_DRIVER_SHARE_PCT", int(cfg.Settlement.DriverSharePct)))
	cfg.Settlement.ConfirmWindow = envDuration("SETTLEMENT_CONFIRM_WINDOW", cfg.Settlement.ConfirmWindow)
	cfg.Settlement.ResolveInterval = envDuration("SETTLEMENT_RESOLVE_INTERVAL", cfg.Settlement.ResolveInterval)

	cfg.RateLimit.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Rate = envFloat("RATE_LIMIT_RATE", cfg.RateLimit.Rate)
	cfg.RateLimit.Burst = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)

	cfg.Pprof.User = envString("PPROF_USER", cfg.Pprof.User)
	cfg.Pprof.Pass = envString("PPROF_PASS", cfg.Pprof.Pass)

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.Parse()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := strconv.Atoi(c.DB.Port); err != nil {
		return fmt.Errorf("invalid postgres port: %q", c.DB.Port)
	}
	if c.Settlement.DriverSharePct < 0 || c.Settlement.DriverSharePct > 100 {
		return fmt.Errorf("invalid driver share pct: %d", c.Settlement.DriverSharePct)
	}
	if c.Settlement.ConfirmWindow <= 0 {
		return fmt.Errorf("invalid confirm window: %s", c.Settlement.ConfirmWindow)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
