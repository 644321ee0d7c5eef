package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/memorylocks/internal/flagx"
)

// dotEnvFile is loaded before the environment is read. Variables already
// present in the process environment win over the file.
var dotEnvFile = ".env"

// parseEnv overlays config with environment variables. A missing .env file
// is not an error; malformed numeric or duration values panic.
func parseEnv(config *Config) {
	if _, err := os.Stat(dotEnvFile); err == nil {
		if err := godotenv.Load(dotEnvFile); err != nil {
			panic(err)
		}
	}

	if err := applyEnv(config, os.LookupEnv); err != nil {
		panic(err)
	}
}

func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("HTTP_ADDRESS", &config.EndpointAddrHTTP)
	str("GRPC_ADDRESS", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("LOG_LEVEL", &config.LogLevel)
	str("CORS_ALLOW_ORIGINS", &config.CORSAllowOrigins)
	str("API_KEY", &config.APIKey)
	str("HASHIDS_SALT", &config.HashSalt)
	str("STORAGE_PROVIDER", &config.StorageProvider)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("CLOUDINARY_URL", &config.CloudinaryURL)
	str("KAFKA_BROKER", &config.KafkaBroker)
	str("KAFKA_TOPIC", &config.KafkaTopic)
	str("KAFKA_USERNAME", &config.KafkaUsername)
	str("KAFKA_PASSWORD", &config.KafkaPassword)
	str("WEBHOOK_URL", &config.WebhookURL)

	for key, dst := range map[string]*int{
		"HASHIDS_MIN_LENGTH": &config.HashMinLength,
		"RATE_LIMIT_READ":    &config.RateLimitRead,
		"RATE_LIMIT_WRITE":   &config.RateLimitWrite,
		"RATE_LIMIT_BULK":    &config.RateLimitBulk,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*time.Duration{
		"SERVICE_TOKEN_VALIDITY": &config.ServiceTokenValidityDuration,
		"RATE_LIMIT_WINDOW":      &config.RateLimitWindow,
		"RATE_LIMIT_SWEEP":       &config.RateLimitSweepInterval,
		"NOTIFY_TIMEOUT":         &config.NotifyTimeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("MILESTONES"); ok && v != "" {
		milestones, err := flagx.ParseInt64List(v)
		if err != nil {
			return fmt.Errorf("MILESTONES: %w", err)
		}
		config.Milestones = milestones
	}

	return nil
}
