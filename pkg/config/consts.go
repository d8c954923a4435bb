package config

const EnvPrefix = "eggmart"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv   = "EGGMART_APP_ENV"
	EnvPort     = "EGGMART_APP_PORT"
	EnvLogLevel = "EGGMART_LOG_LEVEL"

	EnvDBDSN      = "EGGMART_DB_DSN"
	EnvDBHost     = "EGGMART_DB_HOST"
	EnvDBPort     = "EGGMART_DB_PORT"
	EnvDBUser     = "EGGMART_DB_USER"
	EnvDBPassword = "EGGMART_DB_PASSWORD"
	EnvDBName     = "EGGMART_DB_NAME"
	EnvDBSSLMode  = "EGGMART_DB_SSLMODE"

	EnvRedisURL = "EGGMART_REDIS_URL"

	EnvJWTSecret  = "EGGMART_JWT_SECRET"
	EnvJWTIssuer  = "EGGMART_JWT_ISSUER"
	EnvJWTExpMins = "EGGMART_JWT_EXPIRATION_MINUTES"

	EnvMidtransServerKey = "EGGMART_MIDTRANS_SERVER_KEY"
	EnvMidtransClientKey = "EGGMART_MIDTRANS_CLIENT_KEY"
	EnvMidtransEnv       = "EGGMART_MIDTRANS_ENV"

	EnvGCPProjectID = "EGGMART_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic   = "EGGMART_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub     = "EGGMART_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubListingsTopic = "EGGMART_PUBSUB_LISTINGS_TOPIC"
	EnvPubSubListingsSub   = "EGGMART_PUBSUB_LISTINGS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
