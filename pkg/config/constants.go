package config

// EnvPrefix is passed to envconfig; individual fields carry the full names so
// the prefix stays empty here.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, error text).
const (
	EnvAppEnv   = "DUCHESS_APP_ENV"
	EnvPort     = "DUCHESS_APP_PORT"
	EnvDBDSN    = "DUCHESS_DB_DSN"
	EnvDBHost   = "DUCHESS_DB_HOST"
	EnvDBUser   = "DUCHESS_DB_USER"
	EnvDBName   = "DUCHESS_DB_NAME"
	EnvRedisURL = "DUCHESS_REDIS_URL"

	EnvJWTSecret = "DUCHESS_JWT_SECRET"
	EnvJWTIssuer = "DUCHESS_JWT_ISSUER"

	EnvRazorpayKeyID         = "DUCHESS_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "DUCHESS_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret = "DUCHESS_RAZORPAY_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
