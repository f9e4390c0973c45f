package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketDocuments string
	UseSSL          bool
	Region          string
	PresignTTL      time.Duration
	MaxUploadBytes  int64
}

type SecurityConfig struct {
	SessionSecret   string
	SessionTTL      time.Duration
	CookieName      string
	CookieSecure    bool
	SignatureSecret string
}

type QueueConfig struct {
	Stream           string
	Group            string
	Consumer         string
	ClaimInterval    time.Duration
	MaxDeliveries    int64
	DeadLetterStream string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Queue            QueueConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("PROPERTYHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *AppConfig) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.Environment == "production" && c.Security.SessionSecret == "dev-session-secret" {
		return fmt.Errorf("security.sessionsecret must be set in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	// Keys without a real default are still declared so env overrides reach Unmarshal.
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.loglevel", "warn")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketdocuments", "propertyhub-documents")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presignttl", "15m")
	v.SetDefault("storage.maxuploadbytes", 20<<20)

	v.SetDefault("security.sessionsecret", "dev-session-secret")
	v.SetDefault("security.sessionttl", "168h")
	v.SetDefault("security.cookiename", "ph_session")
	v.SetDefault("security.cookiesecure", false)
	v.SetDefault("security.signaturesecret", "dev-signature-secret")

	v.SetDefault("queue.stream", "propertyhub:jobs")
	v.SetDefault("queue.group", "propertyhub-workers")
	v.SetDefault("queue.consumer", "worker-1")
	v.SetDefault("queue.claiminterval", "30s")
	v.SetDefault("queue.maxdeliveries", 5)
	v.SetDefault("queue.deadletterstream", "propertyhub:jobs:dead")

	v.SetDefault("allowcorsorigins", []string{})
}
