package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STOREFRONT_"

// Cart storage drivers.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		Addr               string        `koanf:"addr"`
		ReadTimeout        time.Duration `koanf:"read_timeout"`
		WriteTimeout       time.Duration `koanf:"write_timeout"`
		IdleTimeout        time.Duration `koanf:"idle_timeout"`
		RequestTimeout     time.Duration `koanf:"request_timeout"`
		ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
		MaxRequestBodySize int64         `koanf:"max_request_body_size"`
	} `koanf:"http"`

	Orders struct {
		Addr string `koanf:"addr"`
	} `koanf:"orders"`

	Cart struct {
		Storage string        `koanf:"storage"`
		TTL     time.Duration `koanf:"ttl"`
		// IdleTTL is how long an unused cart stays in memory before it is
		// reloaded from storage.
		IdleTTL       time.Duration `koanf:"idle_ttl"`
		SweepInterval time.Duration `koanf:"sweep_interval"`
	} `koanf:"cart"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Mongo struct {
		URI      string `koanf:"uri"`
		Database string `koanf:"database"`
	} `koanf:"mongo"`

	Checkout struct {
		DeliveryFee       float64       `koanf:"delivery_fee"`
		SettlementTimeout time.Duration `koanf:"settlement_timeout"`
	} `koanf:"checkout"`

	Payment struct {
		Latency      time.Duration `koanf:"latency"`
		CardDeclines bool          `koanf:"card_declines"`
	} `koanf:"payment"`

	Settlement struct {
		Endpoint string        `koanf:"endpoint"`
		Timeout  time.Duration `koanf:"timeout"`
		Breaker  struct {
			MaxRequests      uint32        `koanf:"max_requests"`
			Interval         time.Duration `koanf:"interval"`
			OpenTimeout      time.Duration `koanf:"open_timeout"`
			FailureThreshold uint32        `koanf:"failure_threshold"`
		} `koanf:"breaker"`
	} `koanf:"settlement"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`
}

// Load reads <dir>/base.yaml, then the optional <dir>/<envName>.yaml, then
// STOREFRONT_ environment variables (nested keys joined with __, e.g.
// STOREFRONT_REDIS__ADDR).
func Load(dir, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", dir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	if envName != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", dir, envName)), yaml.Parser())
	}

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
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr required")
	}
	switch c.Cart.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr required for redis cart storage")
		}
	case StorageMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("mongo.uri and mongo.database required for mongo cart storage")
		}
	default:
		return fmt.Errorf("cart.storage must be one of memory, redis, mongo (got %q)", c.Cart.Storage)
	}
	if c.Cart.IdleTTL <= 0 || c.Cart.SweepInterval <= 0 {
		return fmt.Errorf("cart.idle_ttl and cart.sweep_interval must be positive")
	}
	if c.Checkout.DeliveryFee < 0 {
		return fmt.Errorf("checkout.delivery_fee must not be negative")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	return nil
}
