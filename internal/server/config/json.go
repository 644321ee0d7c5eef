package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/memorylocks/internal/flagx"
	"github.com/dmitrijs2005/memorylocks/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both strings such as "1m" and integer nanoseconds. Only keys present with a
// non-zero value override the current settings.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	LogLevel                     string         `json:"log_level"`
	CORSAllowOrigins             string         `json:"cors_allow_origins"`
	APIKey                       string         `json:"api_key"`
	ServiceTokenValidityDuration timex.Duration `json:"service_token_validity_duration"`
	HashSalt                     string         `json:"hash_salt"`
	HashMinLength                int            `json:"hash_min_length"`
	Milestones                   []int64        `json:"milestones"`
	RateLimitWindow              timex.Duration `json:"rate_limit_window"`
	RateLimitRead                int            `json:"rate_limit_read"`
	RateLimitWrite               int            `json:"rate_limit_write"`
	RateLimitBulk                int            `json:"rate_limit_bulk"`
	RateLimitSweepInterval       timex.Duration `json:"rate_limit_sweep_interval"`
	StorageProvider              string         `json:"storage_provider"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	CloudinaryURL                string         `json:"cloudinary_url"`
	KafkaBroker                  string         `json:"kafka_broker"`
	KafkaTopic                   string         `json:"kafka_topic"`
	KafkaUsername                string         `json:"kafka_username"`
	KafkaPassword                string         `json:"kafka_password"`
	WebhookURL                   string         `json:"webhook_url"`
	NotifyTimeout                timex.Duration `json:"notify_timeout"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing happens. An unreadable or malformed file panics: a server started
// with a broken config file must not come up on defaults.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSAllowOrigins, c.CORSAllowOrigins)
	setString(&config.APIKey, c.APIKey)
	setDuration(&config.ServiceTokenValidityDuration, c.ServiceTokenValidityDuration)
	setString(&config.HashSalt, c.HashSalt)
	setInt(&config.HashMinLength, c.HashMinLength)
	if len(c.Milestones) > 0 {
		config.Milestones = c.Milestones
	}
	setDuration(&config.RateLimitWindow, c.RateLimitWindow)
	setInt(&config.RateLimitRead, c.RateLimitRead)
	setInt(&config.RateLimitWrite, c.RateLimitWrite)
	setInt(&config.RateLimitBulk, c.RateLimitBulk)
	setDuration(&config.RateLimitSweepInterval, c.RateLimitSweepInterval)
	setString(&config.StorageProvider, c.StorageProvider)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.CloudinaryURL, c.CloudinaryURL)
	setString(&config.KafkaBroker, c.KafkaBroker)
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.KafkaUsername, c.KafkaUsername)
	setString(&config.KafkaPassword, c.KafkaPassword)
	setString(&config.WebhookURL, c.WebhookURL)
	setDuration(&config.NotifyTimeout, c.NotifyTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
