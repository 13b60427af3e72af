package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Backend       BackendConfig
	Redis         RedisConfig
	State         StateConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Pricing       PricingConfig
	Orders        OrdersConfig
	Square        SquareConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BUCKETCART_APP_ENV" required:"true"`
	Port         string `envconfig:"BUCKETCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BUCKETCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BUCKETCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points the gateway at the storefront REST API it fronts.
type BackendConfig struct {
	BaseURL      string        `envconfig:"BUCKETCART_BACKEND_BASE_URL" required:"true"`
	Timeout      time.Duration `envconfig:"BUCKETCART_BACKEND_TIMEOUT" default:"10s"`
	LoginTimeout time.Duration `envconfig:"BUCKETCART_BACKEND_LOGIN_TIMEOUT" default:"5s"`

	// ServiceToken authenticates the background order feed against the
	// backend's admin endpoints. Optional; the feed stays disabled without it.
	ServiceToken string `envconfig:"BUCKETCART_BACKEND_SERVICE_TOKEN"`
}

func (b BackendConfig) validate() error {
	if !strings.HasPrefix(b.BaseURL, "http://") && !strings.HasPrefix(b.BaseURL, "https://") {
		return fmt.Errorf("%s must be an http(s) url", EnvBackendBaseURL)
	}
	if b.Timeout <= 0 || b.LoginTimeout <= 0 {
		return fmt.Errorf("backend timeouts must be positive")
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"BUCKETCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BUCKETCART_REDIS_ADDR"`
	Password     string        `envconfig:"BUCKETCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"BUCKETCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BUCKETCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BUCKETCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BUCKETCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BUCKETCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BUCKETCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// StateConfig locates the local client-state database (carts, favorites,
// order progress), the server-side stand-in for the browser's local storage.
type StateConfig struct {
	Path string `envconfig:"BUCKETCART_STATE_PATH" default:"bucketcart-state.db"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BUCKETCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BUCKETCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BUCKETCART_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"BUCKETCART_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"BUCKETCART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"BUCKETCART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"BUCKETCART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// PricingConfig carries the storefront's quote rules. Values are currency
// units, not cents, matching the backend's order payloads.
type PricingConfig struct {
	ShippingFee           float64 `envconfig:"BUCKETCART_PRICING_SHIPPING_FEE" default:"40"`
	FreeShippingThreshold float64 `envconfig:"BUCKETCART_PRICING_FREE_SHIPPING_THRESHOLD" default:"1000"`
	TaxRate               float64 `envconfig:"BUCKETCART_PRICING_TAX_RATE" default:"0.05"`
}

type OrdersConfig struct {
	ProgressWindow    time.Duration `envconfig:"BUCKETCART_ORDERS_PROGRESS_WINDOW" default:"25m"`
	ProgressRetention time.Duration `envconfig:"BUCKETCART_ORDERS_PROGRESS_RETENTION" default:"720h"`
	CleanupInterval   time.Duration `envconfig:"BUCKETCART_ORDERS_CLEANUP_INTERVAL" default:"1h"`
	PollInterval      time.Duration `envconfig:"BUCKETCART_ORDERS_POLL_INTERVAL" default:"5s"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"BUCKETCART_SQUARE_ACCESS_TOKEN"`
	Environment   string `envconfig:"BUCKETCART_SQUARE_ENV" default:"sandbox"`
	LocationID    string `envconfig:"BUCKETCART_SQUARE_LOCATION_ID"`
	Currency      string `envconfig:"BUCKETCART_SQUARE_CURRENCY" default:"INR"`
	ReturnURLBase string `envconfig:"BUCKETCART_SQUARE_RETURN_URL_BASE"`
}

// Enabled reports whether hosted checkout can be offered at all.
func (s SquareConfig) Enabled() bool {
	return strings.TrimSpace(s.AccessToken) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BUCKETCART_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
