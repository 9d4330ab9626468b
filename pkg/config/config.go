package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Catalog      CatalogConfig
	Checkout     CheckoutConfig
	Shipping     ShippingConfig
	Stripe       StripeConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MURAQQA_APP_ENV" required:"true"`
	Port         string   `envconfig:"MURAQQA_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"MURAQQA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MURAQQA_LOG_WARN_STACK" default:"false"`
	LoginURL     string   `envconfig:"MURAQQA_LOGIN_URL" default:"/login"`
	CORSOrigins  []string `envconfig:"MURAQQA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"MURAQQA_DB_DSN"`
	Driver string `envconfig:"MURAQQA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MURAQQA_DB_HOST"`
	LegacyPort     int    `envconfig:"MURAQQA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MURAQQA_DB_USER"`
	LegacyPassword string `envconfig:"MURAQQA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MURAQQA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MURAQQA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MURAQQA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MURAQQA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MURAQQA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MURAQQA_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"MURAQQA_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MURAQQA_REDIS_URL"`
	Address      string        `envconfig:"MURAQQA_REDIS_ADDR"`
	Password     string        `envconfig:"MURAQQA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MURAQQA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MURAQQA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MURAQQA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MURAQQA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MURAQQA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MURAQQA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MURAQQA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MURAQQA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MURAQQA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RateLimitConfig throttles the checkout submission endpoints per IP and per shopper.
type RateLimitConfig struct {
	CheckoutWindow    time.Duration `envconfig:"MURAQQA_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit   int           `envconfig:"MURAQQA_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"60"`
	CheckoutUserLimit int           `envconfig:"MURAQQA_RATE_LIMIT_CHECKOUT_USER_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate     bool `envconfig:"MURAQQA_AUTO_MIGRATE" default:"false"`
	PaymentsEnabled bool `envconfig:"MURAQQA_FEATURE_PAYMENTS" default:"true"`
}

// CatalogConfig tunes the storefront listing and its caches.
type CatalogConfig struct {
	Debounce      time.Duration `envconfig:"MURAQQA_CATALOG_DEBOUNCE" default:"300ms"`
	PageLimit     int           `envconfig:"MURAQQA_CATALOG_PAGE_LIMIT" default:"12"`
	FacetCacheTTL time.Duration `envconfig:"MURAQQA_CATALOG_FACET_CACHE_TTL" default:"5m"`
}

// CheckoutConfig holds the commerce rules applied to totals.
type CheckoutConfig struct {
	HomeCountry             string        `envconfig:"MURAQQA_CHECKOUT_HOME_COUNTRY" default:"Pakistan"`
	Currency                string        `envconfig:"MURAQQA_CHECKOUT_CURRENCY" default:"pkr"`
	InternationalTaxPercent string        `envconfig:"MURAQQA_CHECKOUT_INTL_TAX_PERCENT" default:"5"`
	PromoCodes              []string      `envconfig:"MURAQQA_CHECKOUT_PROMO_CODES" default:"MURAQQA10"`
	PromoPercent            string        `envconfig:"MURAQQA_CHECKOUT_PROMO_PERCENT" default:"10"`
	SessionTTL              time.Duration `envconfig:"MURAQQA_CHECKOUT_SESSION_TTL" default:"30m"`
}

func (c CheckoutConfig) validate() error {
	if strings.TrimSpace(c.HomeCountry) == "" {
		return fmt.Errorf("%s is required", EnvCheckoutHomeCountry)
	}
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("%s is required", EnvCheckoutCurrency)
	}
	return nil
}

// ShippingConfig describes the flat rate table offered at checkout.
// Each rate entry is "id:provider:service:price:days".
type ShippingConfig struct {
	DomesticRates      []string `envconfig:"MURAQQA_SHIPPING_DOMESTIC_RATES" default:"tcs-standard:TCS:Standard:2000:3,leopards-express:Leopards:Express:3500:1"`
	InternationalRates []string `envconfig:"MURAQQA_SHIPPING_INTERNATIONAL_RATES" default:"dhl-intl:DHL:International:15000:7"`
}

// CronConfig drives the maintenance worker. A zero TTL disables that sweep.
type CronConfig struct {
	Interval         time.Duration `envconfig:"MURAQQA_CRON_INTERVAL" default:"1h"`
	PendingOrderTTL  time.Duration `envconfig:"MURAQQA_CRON_PENDING_ORDER_TTL" default:"24h"`
	TransferOrderTTL time.Duration `envconfig:"MURAQQA_CRON_TRANSFER_ORDER_TTL" default:"168h"`
	BatchSize        int           `envconfig:"MURAQQA_CRON_BATCH_SIZE" default:"100"`
	LockTTL          time.Duration `envconfig:"MURAQQA_CRON_LOCK_TTL" default:"30m"`
}

type StripeConfig struct {
	APIKey    string `envconfig:"MURAQQA_STRIPE_API_KEY"`
	PublicKey string `envconfig:"MURAQQA_STRIPE_PUBLIC_KEY"`
	Env       string `envconfig:"MURAQQA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether card payments can be offered.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.PublicKey) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
