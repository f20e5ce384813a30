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
	Storage      StorageConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == BlobBackendSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Backend == BlobBackendRedis && !cfg.Redis.Enabled() {
		return nil, fmt.Errorf("%s=redis requires %s or %s", EnvBlobBackend, EnvRedisURL, EnvRedisAddr)
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUUQ_APP_ENV" required:"true"`
	Port         string `envconfig:"SUUQ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SUUQ_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SUUQ_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SUUQ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SUUQ_DB_DSN"`
	Driver string `envconfig:"SUUQ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SUUQ_DB_HOST"`
	LegacyPort     int    `envconfig:"SUUQ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SUUQ_DB_USER"`
	LegacyPassword string `envconfig:"SUUQ_DB_PASSWORD"`
	LegacyName     string `envconfig:"SUUQ_DB_NAME"`
	LegacySSLMode  string `envconfig:"SUUQ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUUQ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUUQ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUUQ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUUQ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SUUQ_REDIS_URL"`
	Address      string        `envconfig:"SUUQ_REDIS_ADDR"`
	Password     string        `envconfig:"SUUQ_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUUQ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUUQ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUUQ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUUQ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUUQ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUUQ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type StorageConfig struct {
	Backend string `envconfig:"SUUQ_BLOB_BACKEND" default:"sql"`
	// BlobTTL expires redis-backed session blobs; zero keeps them forever.
	BlobTTL time.Duration `envconfig:"SUUQ_BLOB_TTL" default:"0"`
}

func (s *StorageConfig) validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case BlobBackendMemory, BlobBackendRedis, BlobBackendSQL:
		return nil
	}
	return fmt.Errorf("%s must be one of memory, redis, sql (got %q)", EnvBlobBackend, s.Backend)
}

type PricingConfig struct {
	ShippingFee decimal.Decimal `envconfig:"SUUQ_PRICING_SHIPPING_FEE" default:"2.00"`
	ServiceFee  decimal.Decimal `envconfig:"SUUQ_PRICING_SERVICE_FEE" default:"1.00"`
	TaxRate     decimal.Decimal `envconfig:"SUUQ_PRICING_TAX_RATE" default:"0.05"`
}

func (p PricingConfig) validate() error {
	if p.ShippingFee.IsNegative() || p.ServiceFee.IsNegative() {
		return fmt.Errorf("pricing fees must be non-negative")
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1", EnvTaxRate)
	}
	return nil
}

type CheckoutConfig struct {
	PlacementDelay time.Duration `envconfig:"SUUQ_CHECKOUT_PLACEMENT_DELAY" default:"2s"`
	CouponWindow   time.Duration `envconfig:"SUUQ_CHECKOUT_COUPON_WINDOW" default:"1m"`
	CouponLimit    int           `envconfig:"SUUQ_CHECKOUT_COUPON_LIMIT" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"SUUQ_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

// CronConfig drives the maintenance worker that sweeps abandoned session blobs.
type CronConfig struct {
	Interval  time.Duration `envconfig:"SUUQ_CRON_INTERVAL" default:"24h"`
	Retention time.Duration `envconfig:"SUUQ_CRON_SESSION_RETENTION" default:"720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SUUQ_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SUUQ_AUTO_MIGRATE" default:"false"`
	// StatusOverride exposes the manual order status endpoint used by demos.
	StatusOverride bool `envconfig:"SUUQ_FEATURE_STATUS_OVERRIDE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
