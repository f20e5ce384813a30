package config

const EnvPrefix = "SUUQ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "SUUQ_APP_ENV"
	EnvPort         = "SUUQ_APP_PORT"
	EnvLogLevel     = "SUUQ_LOG_LEVEL"
	EnvLogFormat    = "SUUQ_LOG_FORMAT"
	EnvLogWarnStack = "SUUQ_LOG_WARN_STACK"

	EnvDBDSN     = "SUUQ_DB_DSN"
	EnvDBDriver  = "SUUQ_DB_DRIVER"
	EnvDBHost    = "SUUQ_DB_HOST"
	EnvDBPort    = "SUUQ_DB_PORT"
	EnvDBUser    = "SUUQ_DB_USER"
	EnvDBPass    = "SUUQ_DB_PASSWORD"
	EnvDBName    = "SUUQ_DB_NAME"
	EnvDBSSLMode = "SUUQ_DB_SSLMODE"

	EnvRedisURL  = "SUUQ_REDIS_URL"
	EnvRedisAddr = "SUUQ_REDIS_ADDR"

	EnvBlobBackend = "SUUQ_BLOB_BACKEND"
	EnvBlobTTL     = "SUUQ_BLOB_TTL"

	EnvShippingFee = "SUUQ_PRICING_SHIPPING_FEE"
	EnvServiceFee  = "SUUQ_PRICING_SERVICE_FEE"
	EnvTaxRate     = "SUUQ_PRICING_TAX_RATE"

	EnvPlacementDelay = "SUUQ_CHECKOUT_PLACEMENT_DELAY"
	EnvCouponWindow   = "SUUQ_CHECKOUT_COUPON_WINDOW"
	EnvCouponLimit    = "SUUQ_CHECKOUT_COUPON_LIMIT"
	EnvIdempotencyTTL = "SUUQ_CHECKOUT_IDEMPOTENCY_TTL"
	EnvCronInterval   = "SUUQ_CRON_INTERVAL"
	EnvCronRetention  = "SUUQ_CRON_SESSION_RETENTION"
	EnvCORSOrigins    = "SUUQ_CORS_ALLOWED_ORIGINS"
	EnvAutoMigrate    = "SUUQ_AUTO_MIGRATE"
	EnvStatusOverride = "SUUQ_FEATURE_STATUS_OVERRIDE"
)

const (
	BlobBackendMemory = "memory"
	BlobBackendRedis  = "redis"
	BlobBackendSQL    = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
