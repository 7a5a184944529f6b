package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tina-boutique/store-service/pkg/tls"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	AWSRegion string `envconfig:"AWS_REGION" default:"sa-east-1"`
	// DynamoDBEndpoint overrides the endpoint for local development
	// (dynamodb-local), empty in real deployments.
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:""`

	ProductTableName  string `envconfig:"PRODUCT_TABLE_NAME" default:"products-table"`
	OrderTableName    string `envconfig:"ORDER_TABLE_NAME" default:"orders-table"`
	CategoryTableName string `envconfig:"CATEGORY_TABLE_NAME" default:"categories-table"`
	SettingsTableName string `envconfig:"SETTINGS_TABLE_NAME" default:"site-settings-table"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	CartTTL       time.Duration `envconfig:"CART_TTL" default:"720h"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"order-events"`

	ImageBucket string `envconfig:"IMAGE_BUCKET" default:""`

	PaymentSessionURL string `envconfig:"PAYMENT_SESSION_URL" default:""`

	CheckoutMaxRetries int `envconfig:"CHECKOUT_MAX_RETRIES" default:"3"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	TLS tls.Config
}

func Load() (*Config, error) {
	// Optional .env for local runs; ignored when absent.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
