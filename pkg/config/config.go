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
	FeatureFlags FeatureFlagsConfig
	GoogleMaps   GoogleMapsConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Bidding      BiddingConfig
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
	Env          string `envconfig:"SWIFTDROP_APP_ENV" required:"true"`
	Port         string `envconfig:"SWIFTDROP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWIFTDROP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWIFTDROP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SWIFTDROP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SWIFTDROP_DB_DSN"`
	Driver string `envconfig:"SWIFTDROP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SWIFTDROP_DB_HOST"`
	LegacyPort     int    `envconfig:"SWIFTDROP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SWIFTDROP_DB_USER"`
	LegacyPassword string `envconfig:"SWIFTDROP_DB_PASSWORD"`
	LegacyName     string `envconfig:"SWIFTDROP_DB_NAME"`
	LegacySSLMode  string `envconfig:"SWIFTDROP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWIFTDROP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWIFTDROP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWIFTDROP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWIFTDROP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWIFTDROP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SWIFTDROP_REDIS_ADDR"`
	Password     string        `envconfig:"SWIFTDROP_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWIFTDROP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWIFTDROP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWIFTDROP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWIFTDROP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWIFTDROP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWIFTDROP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SWIFTDROP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SWIFTDROP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SWIFTDROP_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SWIFTDROP_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"SWIFTDROP_GOOGLE_MAPS_API_KEY"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"SWIFTDROP_SQUARE_ACCESS_TOKEN"`
	LocationID    string `envconfig:"SWIFTDROP_SQUARE_LOCATION_ID"`
	WebhookSecret string `envconfig:"SWIFTDROP_SQUARE_WEBHOOK_SECRET"`
	Env           string `envconfig:"SWIFTDROP_SQUARE_ENV" default:"sandbox"`
	Currency      string `envconfig:"SWIFTDROP_SQUARE_CURRENCY" default:"NGN"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SWIFTDROP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SWIFTDROP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SWIFTDROP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DeliveryTopic        string `envconfig:"SWIFTDROP_PUBSUB_DELIVERY_TOPIC" default:"sd-delivery-events"`
	DeliverySubscription string `envconfig:"SWIFTDROP_PUBSUB_DELIVERY_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SWIFTDROP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SWIFTDROP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SWIFTDROP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type BiddingConfig struct {
	// OpenTTL bounds how long a request may sit open for bids before the
	// scheduled sweep cancels it. Zero disables the sweep.
	OpenTTL       time.Duration `envconfig:"SWIFTDROP_BIDDING_OPEN_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"SWIFTDROP_BIDDING_SWEEP_INTERVAL" default:"10m"`
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
