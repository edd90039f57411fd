package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Pricing      PricingConfig
	Payment      PaymentConfig
	Checkout     CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"STOREFRONT_DB_DSN"`
	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`

	// RedisCartStorage keeps cart slots in redis instead of the cart_slots table.
	RedisCartStorage bool `envconfig:"STOREFRONT_REDIS_CART_STORAGE" default:"true"`
}

type CartConfig struct {
	StorageKey   string        `envconfig:"STOREFRONT_CART_STORAGE_KEY" default:"cart"`
	LegacyKey    string        `envconfig:"STOREFRONT_CART_LEGACY_KEY" default:"cart_raw"`
	SlotTTL      time.Duration `envconfig:"STOREFRONT_CART_SLOT_TTL" default:"720h"`
	IdleEviction time.Duration `envconfig:"STOREFRONT_CART_IDLE_EVICTION" default:"6h"`
}

// PricingConfig holds the two independently configured tax call sites.
type PricingConfig struct {
	CartTaxRate           string `envconfig:"STOREFRONT_CART_TAX_RATE" default:"0.08"`
	CheckoutTaxRate       string `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.17"`
	FreeShippingThreshold string `envconfig:"STOREFRONT_FREE_SHIPPING_THRESHOLD" default:"200"`
	FlatShippingFee       string `envconfig:"STOREFRONT_FLAT_SHIPPING_FEE" default:"25"`
}

func (p PricingConfig) validate() error {
	for name, raw := range map[string]string{
		EnvCartTaxRate:           p.CartTaxRate,
		EnvCheckoutTaxRate:       p.CheckoutTaxRate,
		EnvFreeShippingThreshold: p.FreeShippingThreshold,
		EnvFlatShippingFee:       p.FlatShippingFee,
	} {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", name, err)
		}
		if value.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Decimal parses a validated pricing value.
func (p PricingConfig) Decimal(raw string) decimal.Decimal {
	return decimal.RequireFromString(strings.TrimSpace(raw))
}

type PaymentConfig struct {
	TestCardNumber string        `envconfig:"STOREFRONT_PAYMENT_TEST_CARD" default:"4532123456789012"`
	TestCardExpiry string        `envconfig:"STOREFRONT_PAYMENT_TEST_EXPIRY" default:"12/28"`
	TestCardCVV    string        `envconfig:"STOREFRONT_PAYMENT_TEST_CVV" default:"123"`
	SimulatedDelay time.Duration `envconfig:"STOREFRONT_PAYMENT_SIMULATED_DELAY" default:"1500ms"`
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_PAYMENT_IDEMPOTENCY_TTL" default:"24h"`
}

type CheckoutConfig struct {
	SessionTTL    time.Duration `envconfig:"STOREFRONT_CHECKOUT_SESSION_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"STOREFRONT_CHECKOUT_SWEEP_INTERVAL" default:"1m"`

	// PaymentRateLimit caps payment submissions per session and per client IP
	// within PaymentRateWindow. Zero disables the limit.
	PaymentRateLimit  int           `envconfig:"STOREFRONT_PAYMENT_RATE_LIMIT" default:"10"`
	PaymentRateWindow time.Duration `envconfig:"STOREFRONT_PAYMENT_RATE_WINDOW" default:"1m"`
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
