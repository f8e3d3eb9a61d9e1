package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
	Checkout CheckoutConfig
}

type ServerConfig struct {
	AppEnv      string
	GRPCPort    string
	MetricsAddr string
	// LocaleFiles are extra go-i18n message files loaded over the embedded ones.
	LocaleFiles []string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	Topic          string
	OutboxBatch    int
	OutboxInterval time.Duration
}

type PaymentConfig struct {
	// Provider is "stripe" or "disabled".
	Provider        string
	StripeSecretKey string
	Currency        string
	ReturnURL       string
	Timeout         time.Duration
}

type CheckoutConfig struct {
	// StorageDriver is "postgres" or "memory".
	StorageDriver       string
	PaymentRouting      string
	IdempotencyTTL      time.Duration
	CompensationTimeout time.Duration
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:      getEnv("APP_ENV", "dev"),
			GRPCPort:    getEnv("GRPC_PORT", ":8090"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			LocaleFiles: getEnvSlice("I18N_LOCALE_FILES", nil),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "tecnoshop"),
			Password:        getEnv("POSTGRES_PASSWORD", "tecnoshop"),
			DBName:          getEnv("POSTGRES_DB", "tecnoshop_checkout"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "your-secret-key-change-this-in-prod"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:        getEnvBool("KAFKA_ENABLED", true),
			Brokers:        getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:          getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			OutboxBatch:    getEnvInt("OUTBOX_BATCH_SIZE", 100),
			OutboxInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
		},
		Payment: PaymentConfig{
			Provider:        getEnv("PAYMENT_PROVIDER", "stripe"),
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:        strings.ToLower(getEnv("PAYMENT_CURRENCY", "mxn")),
			ReturnURL:       getEnv("PAYMENT_RETURN_URL", "http://localhost:5173/exito"),
			Timeout:         getEnvDuration("CHECKOUT_GATEWAY_TIMEOUT", 15*time.Second),
		},
		Checkout: CheckoutConfig{
			StorageDriver:       getEnv("STORAGE_DRIVER", "postgres"),
			PaymentRouting:      getEnv("CHECKOUT_PAYMENT_ROUTING", "per_store"),
			IdempotencyTTL:      getEnvDuration("CHECKOUT_IDEMPOTENCY_TTL", time.Minute),
			CompensationTimeout: getEnvDuration("CHECKOUT_COMPENSATION_TIMEOUT", 10*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
