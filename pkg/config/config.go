package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every HarborClub environment variable.
const EnvPrefix = "HARBORCLUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "HARBORCLUB_DB_DSN"
	EnvDBHost = "HARBORCLUB_DB_HOST"
	EnvDBUser = "HARBORCLUB_DB_USER"
	EnvDBName = "HARBORCLUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Gateway   GatewayConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	CRM       CRMConfig
	Ingest    IngestConfig
	Reconcile ReconcileConfig
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
	Env          string `envconfig:"HARBORCLUB_APP_ENV" required:"true"`
	Port         string `envconfig:"HARBORCLUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HARBORCLUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HARBORCLUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HARBORCLUB_DB_DSN"`
	Driver string `envconfig:"HARBORCLUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HARBORCLUB_DB_HOST"`
	LegacyPort     int    `envconfig:"HARBORCLUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HARBORCLUB_DB_USER"`
	LegacyPassword string `envconfig:"HARBORCLUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"HARBORCLUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"HARBORCLUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HARBORCLUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HARBORCLUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HARBORCLUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HARBORCLUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HARBORCLUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HARBORCLUB_REDIS_ADDR"`
	Password     string        `envconfig:"HARBORCLUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"HARBORCLUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HARBORCLUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HARBORCLUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HARBORCLUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HARBORCLUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HARBORCLUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig holds credentials for the payment gateway (Square).
type GatewayConfig struct {
	AccessToken   string `envconfig:"HARBORCLUB_GATEWAY_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"HARBORCLUB_GATEWAY_WEBHOOK_SECRET"`
	Env           string `envconfig:"HARBORCLUB_GATEWAY_ENV" default:"sandbox"`
	LocationID    string `envconfig:"HARBORCLUB_GATEWAY_LOCATION_ID"`
}

// Environment returns the normalized gateway environment (sandbox/production).
func (g GatewayConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(g.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HARBORCLUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HARBORCLUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HARBORCLUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	MemberEventsTopic string `envconfig:"HARBORCLUB_PUBSUB_MEMBER_EVENTS_TOPIC" default:"hc-member-events"`
}

// CRMConfig points at the member CRM the club mirrors billing state into.
type CRMConfig struct {
	BaseURL string        `envconfig:"HARBORCLUB_CRM_BASE_URL"`
	APIKey  string        `envconfig:"HARBORCLUB_CRM_API_KEY"`
	Timeout time.Duration `envconfig:"HARBORCLUB_CRM_TIMEOUT" default:"10s"`
}

// IngestConfig tunes the gateway event ingestion engine.
type IngestConfig struct {
	GuardTTL time.Duration `envconfig:"HARBORCLUB_INGEST_GUARD_TTL" default:"720h"`
}

// ReconcileConfig tunes the periodic sweep against the gateway's records.
type ReconcileConfig struct {
	Interval time.Duration `envconfig:"HARBORCLUB_RECONCILE_INTERVAL" default:"1h"`
	Lookback time.Duration `envconfig:"HARBORCLUB_RECONCILE_LOOKBACK" default:"24h"`
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
