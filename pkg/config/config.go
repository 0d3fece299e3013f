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
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	Checkout      CheckoutConfig
	PubSub        PubSubConfig
	Realtime      RealtimeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.ShippingCostDecimal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MARKETLY_APP_ENV" default:"dev"`
	Port         string   `envconfig:"MARKETLY_APP_PORT" default:"5000"`
	LogLevel     string   `envconfig:"MARKETLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MARKETLY_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MARKETLY_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETLY_DB_DSN"`
	Driver string `envconfig:"MARKETLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETLY_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETLY_DB_USER"`
	LegacyPassword string `envconfig:"MARKETLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; an empty URL and address disables sessions,
// idempotency replay and auth rate limiting.
type RedisConfig struct {
	URL          string        `envconfig:"MARKETLY_REDIS_URL"`
	Address      string        `envconfig:"MARKETLY_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret                 string `envconfig:"MARKETLY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MARKETLY_JWT_ISSUER" default:"marketly"`
	ExpirationMinutes      int    `envconfig:"MARKETLY_JWT_EXPIRATION_MINUTES" default:"10080"`
	RefreshTokenTTLMinutes int    `envconfig:"MARKETLY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKETLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKETLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKETLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKETLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKETLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MARKETLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MARKETLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MARKETLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MARKETLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MARKETLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MARKETLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETLY_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"MARKETLY_STRIPE_API_KEY"`
	Secret   string `envconfig:"MARKETLY_STRIPE_WEBHOOK_SECRET"`
	Env      string `envconfig:"MARKETLY_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"MARKETLY_STRIPE_CURRENCY" default:"inr"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Configured reports whether a secret key is present.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type CheckoutConfig struct {
	ShippingCost string `envconfig:"MARKETLY_SHIPPING_COST" default:"40"`
}

// ShippingCostDecimal parses the flat shipping surcharge.
func (c CheckoutConfig) ShippingCostDecimal() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.ShippingCost)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number: %w", EnvShippingCost, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be >= 0", EnvShippingCost)
	}
	return value, nil
}

// PubSubConfig is optional; without a project id order events are dropped.
type PubSubConfig struct {
	ProjectID       string `envconfig:"MARKETLY_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"MARKETLY_GCP_CREDENTIALS_JSON"`
	OrdersTopic     string `envconfig:"MARKETLY_PUBSUB_ORDERS_TOPIC" default:"marketly-order-events"`
}

func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ProjectID) != "" && strings.TrimSpace(p.OrdersTopic) != ""
}

type RealtimeConfig struct {
	AllowedOrigins []string      `envconfig:"MARKETLY_REALTIME_ALLOWED_ORIGINS" default:"*"`
	WriteTimeout   time.Duration `envconfig:"MARKETLY_REALTIME_WRITE_TIMEOUT" default:"10s"`
	PongWait       time.Duration `envconfig:"MARKETLY_REALTIME_PONG_WAIT" default:"60s"`
	MaxMessageSize int64         `envconfig:"MARKETLY_REALTIME_MAX_MESSAGE_BYTES" default:"65536"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = "file::memory:?cache=shared"
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
