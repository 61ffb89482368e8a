package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "schoolmart"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SCHOOLMART_DB_DSN"
	EnvDBHost = "SCHOOLMART_DB_HOST"
	EnvDBUser = "SCHOOLMART_DB_USER"
	EnvDBName = "SCHOOLMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Gateway      GatewayConfig
	Cart         CartConfig
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
	Env          string `envconfig:"SCHOOLMART_APP_ENV" required:"true"`
	Port         string `envconfig:"SCHOOLMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCHOOLMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCHOOLMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SCHOOLMART_DB_DSN"`
	Driver string `envconfig:"SCHOOLMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCHOOLMART_DB_HOST"`
	LegacyPort     int    `envconfig:"SCHOOLMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCHOOLMART_DB_USER"`
	LegacyPassword string `envconfig:"SCHOOLMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCHOOLMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCHOOLMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCHOOLMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCHOOLMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCHOOLMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCHOOLMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCHOOLMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCHOOLMART_REDIS_ADDR"`
	Password     string        `envconfig:"SCHOOLMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCHOOLMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCHOOLMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCHOOLMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCHOOLMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCHOOLMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCHOOLMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SCHOOLMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SCHOOLMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SCHOOLMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

// GatewayConfig points the session cart service at the authoritative cart API.
type GatewayConfig struct {
	BaseURL        string        `envconfig:"SCHOOLMART_GATEWAY_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"SCHOOLMART_GATEWAY_TIMEOUT" default:"10s"`
}

// CartConfig carries display defaults applied while normalizing upstream payloads.
type CartConfig struct {
	PlaceholderImage string        `envconfig:"SCHOOLMART_CART_PLACEHOLDER_IMAGE" default:"/images/placeholder-product.png"`
	DefaultCategory  string        `envconfig:"SCHOOLMART_CART_DEFAULT_CATEGORY" default:"Uncategorized"`
	IdempotencyTTL   time.Duration `envconfig:"SCHOOLMART_CART_IDEMPOTENCY_TTL" default:"24h"`
	RateLimit        int           `envconfig:"SCHOOLMART_CART_RATE_LIMIT" default:"60"`
	RateLimitWindow  time.Duration `envconfig:"SCHOOLMART_CART_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SCHOOLMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SCHOOLMART_AUTO_MIGRATE" default:"false"`
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
