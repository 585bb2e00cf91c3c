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
	Razorpay     RazorpayConfig
	Checkout     CheckoutConfig
	Delivery     DeliveryConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DUCHESS_APP_ENV" required:"true"`
	Port         string `envconfig:"DUCHESS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DUCHESS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUCHESS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUCHESS_DB_DSN"`
	Driver string `envconfig:"DUCHESS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DUCHESS_DB_HOST"`
	LegacyPort     int    `envconfig:"DUCHESS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DUCHESS_DB_USER"`
	LegacyPassword string `envconfig:"DUCHESS_DB_PASSWORD"`
	LegacyName     string `envconfig:"DUCHESS_DB_NAME"`
	LegacySSLMode  string `envconfig:"DUCHESS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUCHESS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUCHESS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUCHESS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUCHESS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUCHESS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DUCHESS_REDIS_ADDR"`
	Password     string        `envconfig:"DUCHESS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUCHESS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUCHESS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUCHESS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUCHESS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUCHESS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUCHESS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DUCHESS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DUCHESS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DUCHESS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RazorpayConfig holds gateway credentials. KeySecret and WebhookSecret must
// never appear in logs or response bodies; only KeyID is public.
type RazorpayConfig struct {
	KeyID         string `envconfig:"DUCHESS_RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string `envconfig:"DUCHESS_RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string `envconfig:"DUCHESS_RAZORPAY_WEBHOOK_SECRET" required:"true"`
}

type CheckoutConfig struct {
	SessionTTL         time.Duration `envconfig:"DUCHESS_CHECKOUT_SESSION_TTL" default:"1h"`
	SettlementLeaseTTL time.Duration `envconfig:"DUCHESS_SETTLEMENT_LEASE_TTL" default:"30s"`
	WebhookEventTTL    time.Duration `envconfig:"DUCHESS_WEBHOOK_EVENT_TTL" default:"720h"`
	PendingPaymentTTL  time.Duration `envconfig:"DUCHESS_PENDING_PAYMENT_TTL" default:"24h"`
}

type DeliveryConfig struct {
	RuleCacheTTL   time.Duration `envconfig:"DUCHESS_DELIVERY_RULE_CACHE_TTL" default:"5m"`
	FallbackCharge int64         `envconfig:"DUCHESS_DELIVERY_FALLBACK_CHARGE" default:"50"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DUCHESS_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DUCHESS_AUTO_MIGRATE" default:"false"`
	UseSQLite   bool `envconfig:"DUCHESS_USE_SQLITE" default:"false"`
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
