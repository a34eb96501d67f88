package configs

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // rewards.timezone must resolve in slim images

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STOREFRONT_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
		Currency string `koanf:"currency"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Session struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"session"`

	OrderCache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"order_cache"`

	Rabbit struct {
		URL        string `koanf:"url"`
		Exchange   string `koanf:"exchange"`
		RoutingKey string `koanf:"routing_key"`
		Queue      string `koanf:"queue"`
		Prefetch   int    `koanf:"prefetch"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers       []string `koanf:"brokers"`
		TopicPayments string   `koanf:"topic_payments"`
		GroupID       string   `koanf:"group_id"`
	} `koanf:"kafka"`

	Outbox struct {
		Batch    int           `koanf:"batch"`
		Interval time.Duration `koanf:"interval"`
	} `koanf:"outbox"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Payments struct {
		BaseURL          string `koanf:"base_url"`
		SecretKey        string `koanf:"secret_key"`
		WebhookPubKeyPEM string `koanf:"webhook_pub_pem"`
	} `koanf:"payments"`

	Checkout struct {
		CallTimeout   time.Duration `koanf:"call_timeout"`
		LockTTL       time.Duration `koanf:"lock_ttl"`
		MaxConcurrent int           `koanf:"max_concurrent"`
	} `koanf:"checkout"`

	Rewards struct {
		Timezone string `koanf:"timezone"`
	} `koanf:"rewards"`

	GRPC struct {
		HealthAddr string `koanf:"health_addr"`
	} `koanf:"grpc"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix STOREFRONT_, nested with __)
	// e.g. STOREFRONT_MYSQL__DSN, STOREFRONT_REDIS__PASSWORD
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) defaults() {
	if c.App.Currency == "" {
		c.App.Currency = "MXN"
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Checkout.CallTimeout <= 0 {
		c.Checkout.CallTimeout = 10 * time.Second
	}
	if c.Checkout.LockTTL <= 0 {
		c.Checkout.LockTTL = 30 * time.Second
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 30 * 24 * time.Hour
	}
	if c.OrderCache.TTL <= 0 {
		c.OrderCache.TTL = 24 * time.Hour
	}
	if c.Idempotency.TTL <= 0 {
		c.Idempotency.TTL = 24 * time.Hour
	}
	if c.Rewards.Timezone == "" {
		c.Rewards.Timezone = "UTC"
	}
}

// Location is the zone daily rewards count calendar days in.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Rewards.Timezone)
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 bytes")
	}
	if c.Payments.BaseURL == "" {
		return fmt.Errorf("payments.base_url required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("rewards.timezone: %w", err)
	}
	return nil
}
