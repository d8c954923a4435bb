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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Midtrans     MidtransConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Orders       OrdersConfig
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
	Env          string `envconfig:"EGGMART_APP_ENV" required:"true"`
	Port         string `envconfig:"EGGMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EGGMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EGGMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EGGMART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EGGMART_DB_DSN"`
	Driver string `envconfig:"EGGMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EGGMART_DB_HOST"`
	LegacyPort     int    `envconfig:"EGGMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EGGMART_DB_USER"`
	LegacyPassword string `envconfig:"EGGMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"EGGMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"EGGMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EGGMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EGGMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EGGMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EGGMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EGGMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EGGMART_REDIS_ADDR"`
	Password     string        `envconfig:"EGGMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"EGGMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EGGMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EGGMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EGGMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EGGMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EGGMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"EGGMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EGGMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EGGMART_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type MidtransConfig struct {
	ServerKey string        `envconfig:"EGGMART_MIDTRANS_SERVER_KEY"`
	ClientKey string        `envconfig:"EGGMART_MIDTRANS_CLIENT_KEY"`
	Env       string        `envconfig:"EGGMART_MIDTRANS_ENV" default:"sandbox"`
	Timeout   time.Duration `envconfig:"EGGMART_MIDTRANS_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Midtrans environment (sandbox/production).
func (m MidtransConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"EGGMART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"EGGMART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"EGGMART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic          string `envconfig:"EGGMART_PUBSUB_ORDERS_TOPIC" default:"eggmart-order-events"`
	OrdersSubscription   string `envconfig:"EGGMART_PUBSUB_ORDERS_SUBSCRIPTION" default:"eggmart-order-events-sub"`
	ListingsTopic        string `envconfig:"EGGMART_PUBSUB_LISTINGS_TOPIC" default:"eggmart-listing-events"`
	ListingsSubscription string `envconfig:"EGGMART_PUBSUB_LISTINGS_SUBSCRIPTION" default:"eggmart-listing-events-sub"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"EGGMART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"EGGMART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"EGGMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type OrdersConfig struct {
	IdempotencyTTL time.Duration `envconfig:"EGGMART_ORDERS_IDEMPOTENCY_TTL" default:"24h"`
	CodePrefix     string        `envconfig:"EGGMART_ORDERS_CODE_PREFIX" default:"EGG"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EGGMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EGGMART_AUTO_MIGRATE" default:"false"`
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
