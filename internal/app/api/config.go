package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	usersapp "github.com/Apurer/aims-commerce/internal/domains/users/application"
	platformkafka "github.com/Apurer/aims-commerce/internal/platform/kafka"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port               string
	PostgresDSN        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	KafkaBrokers       []string
	KafkaOrderTopic    string
	KafkaConsumerGroup string
	TemporalAddress    string
	TemporalNamespace  string
	TemporalDisabled   bool
	VNPay              VNPayConfig
	CheckoutConfirmURL string
	SessionTTL         time.Duration
}

// VNPayConfig holds the merchant credentials for the VNPay sandbox or production gateway.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:               envDefault("PORT", "8080"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:       platformkafka.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:    envDefault("KAFKA_ORDER_TOPIC", platformkafka.DefaultOrderTopic),
		KafkaConsumerGroup: envDefault("KAFKA_CONSUMER_GROUP", "aims-order-stock-check"),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		VNPay: VNPayConfig{
			TmnCode:    envDefault("VNPAY_TMN_CODE", "DEMO"),
			HashSecret: os.Getenv("VNPAY_HASH_SECRET"),
			PayURL:     strings.TrimSpace(os.Getenv("VNPAY_PAY_URL")),
			ReturnURL:  envDefault("VNPAY_RETURN_URL", "http://localhost:8080/api/payments/vnpay/result"),
		},
		CheckoutConfirmURL: envDefault("CHECKOUT_CONFIRM_URL", "http://localhost:3000/checkout/confirmation"),
		SessionTTL:         usersapp.DefaultSessionTTL,
	}
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			return Config{}, fmt.Errorf("REDIS_DB must be a non-negative integer")
		}
		cfg.RedisDB = db
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
