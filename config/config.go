package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	PublicURL       string        `envconfig:"PUBLIC_URL" default:"http://localhost:5173"`
	CORSOrigins     string        `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`

	Store    string `envconfig:"STORE" default:"mongo"`
	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	DBName   string `envconfig:"DB_NAME" default:"bookstore"`

	// Empty RedisAddr keeps idempotency records and revoked tokens in process memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"8h"`

	StripeSecretKey  string        `envconfig:"STRIPE_SECRET_KEY"`
	Currency         string        `envconfig:"CURRENCY" default:"ron"`
	ShippingFeeMinor int64         `envconfig:"SHIPPING_FEE_MINOR" default:"1999"`
	ShippingName     string        `envconfig:"SHIPPING_NAME" default:"Transport"`
	GatewayTimeout   time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	IdempotencyTTL   time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	CatalogLocale string `envconfig:"CATALOG_LOCALE" default:"ro"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadEnv reads a .env file into the process environment when one exists.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMongo, StoreMemory:
	default:
		return errors.Errorf("unknown STORE %q", c.Store)
	}
	if c.ShippingFeeMinor < 0 {
		return errors.New("SHIPPING_FEE_MINOR must not be negative")
	}
	if c.GatewayTimeout <= 0 {
		return errors.New("GATEWAY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
