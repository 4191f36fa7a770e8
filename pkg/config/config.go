// Package config loads service configuration from an optional file and the environment.
//
// Every key can be overridden by an environment variable where dots become
// underscores, e.g. razorpay.key_id -> RAZORPAY_KEY_ID.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full service configuration
type Config struct {
	Environment string
	LogLevel    string
	ServiceName string
	HTTPPort    string
	GRPCPort    string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Razorpay RazorpayConfig
	Session  SessionConfig
	CORS     CORSConfig

	CronSecret     string
	JaegerEndpoint string
}

// DatabaseConfig selects and configures the datastore
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string // sqlite file
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
}

// RazorpayConfig holds payment gateway credentials. Empty key id or secret means mock mode.
type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
}

// Enabled reports whether live gateway credentials are configured
func (c RazorpayConfig) Enabled() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

// CORSConfig lists browser origins allowed to make credentialed requests.
// Empty means same-origin only.
type CORSConfig struct {
	AllowedOrigins []string
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "goldlink")
	v.SetDefault("http_port", "8080")
	v.SetDefault("grpc_port", "9090")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "goldlink")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "./data/goldlink.db")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", "")

	v.SetDefault("razorpay.base_url", "https://api.razorpay.com/v1")
	v.SetDefault("razorpay.timeout", "10s")

	v.SetDefault("session.ttl", "24h")
	v.SetDefault("cors.allowed_origins", "")
	v.SetDefault("jaeger.endpoint", "http://localhost:14268/api/traces")
}

// Load reads configuration for the server. configPath may be empty, in which
// case only defaults and the environment are used.
func Load(configPath string) (*Config, error) {
	return load(configPath, true)
}

// LoadTooling reads configuration for binaries that never issue sessions
func LoadTooling(configPath string) (*Config, error) {
	return load(configPath, false)
}

func load(configPath string, serving bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	cfg := &Config{
		Environment: v.GetString("environment"),
		LogLevel:    v.GetString("log_level"),
		ServiceName: v.GetString("service_name"),
		HTTPPort:    v.GetString("http_port"),
		GRPCPort:    v.GetString("grpc_port"),
		Database: DatabaseConfig{
			Driver:   v.GetString("db.driver"),
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
			Path:     v.GetString("db.path"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("kafka.brokers")),
		},
		Razorpay: RazorpayConfig{
			KeyID:         v.GetString("razorpay.key_id"),
			KeySecret:     v.GetString("razorpay.key_secret"),
			WebhookSecret: v.GetString("razorpay.webhook_secret"),
			BaseURL:       v.GetString("razorpay.base_url"),
			Timeout:       v.GetDuration("razorpay.timeout"),
		},
		Session: SessionConfig{
			Secret: v.GetString("session.secret"),
			TTL:    v.GetDuration("session.ttl"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
		},
		CronSecret:     v.GetString("cron.secret"),
		JaegerEndpoint: v.GetString("jaeger.endpoint"),
	}

	if err := cfg.validate(serving); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(serving bool) error {
	if serving && c.Session.Secret == "" {
		return fmt.Errorf("session.secret (SESSION_SECRET) is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported db.driver %q", c.Database.Driver)
	}
	if c.Razorpay.Enabled() && c.Razorpay.WebhookSecret == "" {
		return fmt.Errorf("razorpay.webhook_secret is required when gateway credentials are set")
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("cors.allowed_origins cannot contain * because sessions are sent as cookies")
		}
	}
	if c.Razorpay.Timeout <= 0 {
		return fmt.Errorf("razorpay.timeout must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
