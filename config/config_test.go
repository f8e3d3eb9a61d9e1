package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()
	assert.Equal(t, "mxn", cfg.Payment.Currency)
	assert.Equal(t, "per_store", cfg.Checkout.PaymentRouting)
	assert.Equal(t, "orders.events", cfg.Kafka.Topic)
	assert.Equal(t, 15*time.Second, cfg.Payment.Timeout)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("CHECKOUT_GATEWAY_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")

	cfg := LoadEnv()
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "memory", cfg.Checkout.StorageDriver)
	assert.Equal(t, 100, cfg.Kafka.OutboxBatch)
}
