package config

const (
	EnvPrefix = "MARKETLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv        = "MARKETLY_APP_ENV"
	EnvPort          = "MARKETLY_APP_PORT"
	EnvDBDSN         = "MARKETLY_DB_DSN"
	EnvDBDriver      = "MARKETLY_DB_DRIVER"
	EnvDBHost        = "MARKETLY_DB_HOST"
	EnvDBUser        = "MARKETLY_DB_USER"
	EnvDBName        = "MARKETLY_DB_NAME"
	EnvRedisURL      = "MARKETLY_REDIS_URL"
	EnvJWTSecret     = "MARKETLY_JWT_SECRET"
	EnvJWTIssuer     = "MARKETLY_JWT_ISSUER"
	EnvJWTExpMins    = "MARKETLY_JWT_EXPIRATION_MINUTES"
	EnvStripeAPIKey  = "MARKETLY_STRIPE_API_KEY"
	EnvStripeSecret  = "MARKETLY_STRIPE_WEBHOOK_SECRET"
	EnvShippingCost  = "MARKETLY_SHIPPING_COST"
	EnvGCPProjectID  = "MARKETLY_GCP_PROJECT_ID"
	EnvOrdersTopic   = "MARKETLY_PUBSUB_ORDERS_TOPIC"
	EnvCORSOrigins   = "MARKETLY_CORS_ORIGINS"
	EnvRefreshTTLMin = "MARKETLY_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
