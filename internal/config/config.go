// Package config loads process-wide configuration from the environment and
// validates it at startup so misconfiguration fails fast.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Document store drivers.
const (
	DriverDynamo   = "dynamo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port string

	StoreDriver string
	Database    string // logical database name, prefixes table names

	DatabaseURL    string // postgres driver
	AWSRegion      string // dynamo driver
	DynamoEndpoint string // optional local endpoint override

	RedisAddr string // empty disables the catalog cache

	KafkaBrokers []string // empty disables event publishing
	KafkaTopic   string

	ImagesDir string // empty disables static file serving
}

// Load reads the environment and validates required values.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		StoreDriver:    getEnv("DOCSTORE_DRIVER", DriverDynamo),
		Database:       getEnv("DOCSTORE_DATABASE", "storefront"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		DynamoEndpoint: os.Getenv("DYNAMO_ENDPOINT"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "storefront-events"),
		ImagesDir:      os.Getenv("IMAGES_DIR"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	switch cfg.StoreDriver {
	case DriverDynamo, DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DOCSTORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("unknown DOCSTORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.Database == "" {
		return nil, fmt.Errorf("DOCSTORE_DATABASE must not be empty")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
