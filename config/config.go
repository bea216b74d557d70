package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	RedisURL  string
	MongoURL  string
	MongoDB   string
	JWTSecret string

	KafkaBrokers string
	KafkaTopic   string

	StripeSecretKey  string
	StripeWebhookKey string

	// Pricing constants applied when computing cart totals.
	ShippingFee float64
	TaxRate     float64

	CartTTL           time.Duration
	CompletionFlagTTL time.Duration
}

func Load() Config {
	// Load .env if present (local development); real deployments set env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Port:        getEnv("PORT", "8086"),
		Environment: getEnv("ENVIRONMENT", "development"),

		RedisURL:  getEnv("REDIS_URL", "redis://redis:6379"),
		MongoURL:  getEnv("MONGO_URL", "mongodb://mongo:27017"),
		MongoDB:   getEnv("MONGO_DB", "driftwear"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key"),

		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "checkout.staged"),

		StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookKey: getEnv("STRIPE_WEBHOOK_KEY", ""),

		ShippingFee: getEnvFloat("SHIPPING_FEE", 5.99),
		TaxRate:     getEnvFloat("TAX_RATE", 0.08),

		CartTTL:           time.Hour * 24 * 7, // default 7 days
		CompletionFlagTTL: time.Hour,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %v, using default", key, err)
		return defaultVal
	}
	return f
}
