package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "auracart"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "AURACART_DB_DSN"
	EnvDBHost = "AURACART_DB_HOST"
	EnvDBUser = "AURACART_DB_USER"
	EnvDBName = "AURACART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	AdminJWT     AdminJWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Paystack     PaystackConfig
	NOWPayments  NOWPaymentsConfig
	AliExpress   AliExpressConfig
	CJ           CJConfig
	Suppliers    SupplierManagerConfig
	Cart         CartConfig
	Sweep        SweepConfig
	Cron         CronConfig
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
	Env          string `envconfig:"AURACART_APP_ENV" required:"true"`
	Port         string `envconfig:"AURACART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AURACART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AURACART_LOG_WARN_STACK" default:"false"`
	Currency     string `envconfig:"AURACART_STORE_CURRENCY" default:"NGN"`
	FrontendURL  string `envconfig:"AURACART_FRONTEND_URL"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AURACART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AURACART_DB_DSN"`
	Driver string `envconfig:"AURACART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AURACART_DB_HOST"`
	LegacyPort     int    `envconfig:"AURACART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AURACART_DB_USER"`
	LegacyPassword string `envconfig:"AURACART_DB_PASSWORD"`
	LegacyName     string `envconfig:"AURACART_DB_NAME"`
	LegacySSLMode  string `envconfig:"AURACART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AURACART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AURACART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AURACART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AURACART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AURACART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AURACART_REDIS_ADDR"`
	Password     string        `envconfig:"AURACART_REDIS_PASSWORD"`
	DB           int           `envconfig:"AURACART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AURACART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AURACART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AURACART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AURACART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AURACART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AdminJWTConfig struct {
	Secret            string `envconfig:"AURACART_ADMIN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AURACART_ADMIN_JWT_ISSUER" default:"auracart"`
	ExpirationMinutes int    `envconfig:"AURACART_ADMIN_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AURACART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AURACART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"AURACART_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"AURACART_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"AURACART_PUBSUB_ORDERS_TOPIC" default:"ac-order-events"`
	OrdersSubscription string `envconfig:"AURACART_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AURACART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AURACART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AURACART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PaystackConfig struct {
	SecretKey string `envconfig:"AURACART_PAYSTACK_SECRET_KEY"`
	BaseURL   string `envconfig:"AURACART_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
}

func (p PaystackConfig) Configured() bool {
	return strings.TrimSpace(p.SecretKey) != ""
}

type NOWPaymentsConfig struct {
	APIKey    string `envconfig:"AURACART_NOWPAYMENTS_API_KEY"`
	IPNSecret string `envconfig:"AURACART_NOWPAYMENTS_IPN_SECRET"`
	BaseURL   string `envconfig:"AURACART_NOWPAYMENTS_BASE_URL" default:"https://api.nowpayments.io/v1"`
}

func (n NOWPaymentsConfig) Configured() bool {
	return strings.TrimSpace(n.APIKey) != ""
}

type AliExpressConfig struct {
	AppKey    string `envconfig:"AURACART_ALIEXPRESS_APP_KEY"`
	AppSecret string `envconfig:"AURACART_ALIEXPRESS_APP_SECRET"`
	BaseURL   string `envconfig:"AURACART_ALIEXPRESS_BASE_URL" default:"https://api-sg.aliexpress.com/sync"`
}

func (a AliExpressConfig) Configured() bool {
	return a.AppKey != "" && a.AppSecret != ""
}

type CJConfig struct {
	APIKey  string `envconfig:"AURACART_CJ_API_KEY"`
	BaseURL string `envconfig:"AURACART_CJ_BASE_URL" default:"https://developers.cjdropshipping.com/api2.0/v1"`
}

func (c CJConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type SupplierManagerConfig struct {
	RequestTimeout time.Duration `envconfig:"AURACART_SUPPLIER_REQUEST_TIMEOUT" default:"30s"`
	EnableCaching  bool          `envconfig:"AURACART_SUPPLIER_ENABLE_CACHING" default:"true"`
	CacheTTL       time.Duration `envconfig:"AURACART_SUPPLIER_CACHE_TTL" default:"5m"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"AURACART_CART_TTL" default:"720h"`
}

type SweepConfig struct {
	PendingOrderTTL time.Duration `envconfig:"AURACART_PENDING_ORDER_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"AURACART_CRON_INTERVAL" default:"6h"`
	LockKey  string        `envconfig:"AURACART_CRON_LOCK_KEY" default:"ac:cron:lock"`
	LockTTL  time.Duration `envconfig:"AURACART_CRON_LOCK_TTL" default:"5h"`
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
