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
	FeatureFlags FeatureFlagsConfig
	Inventory    InventoryConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POS_APP_ENV" required:"true"`
	Port         string `envconfig:"POS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"POS_LOG_FORMAT" default:"json"`
	// CORSOrigins lists the front-end origins allowed to call the API.
	CORSOrigins []string `envconfig:"POS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"POS_SERVICE_KIND" default:"api"`
	// MetricsAddr is where the cron worker and outbox publisher serve
	// /metrics. Empty disables the listener; the API uses its own router.
	MetricsAddr string `envconfig:"POS_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"POS_DB_DSN"`
	Driver string `envconfig:"POS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"POS_DB_HOST"`
	LegacyPort     int    `envconfig:"POS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"POS_DB_USER"`
	LegacyPassword string `envconfig:"POS_DB_PASSWORD"`
	LegacyName     string `envconfig:"POS_DB_NAME"`
	LegacySSLMode  string `envconfig:"POS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local single-terminal store is configured.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"POS_REDIS_URL"`
	Address      string        `envconfig:"POS_REDIS_ADDR"`
	Password     string        `envconfig:"POS_REDIS_PASSWORD"`
	DB           int           `envconfig:"POS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate  bool `envconfig:"POS_AUTO_MIGRATE" default:"false"`
	EmitEvents   bool `envconfig:"POS_FEATURE_EMIT_EVENTS" default:"true"`
	Idempotency  bool `envconfig:"POS_FEATURE_IDEMPOTENCY" default:"true"`
	MetricsRoute bool `envconfig:"POS_FEATURE_METRICS_ROUTE" default:"true"`
}

type InventoryConfig struct {
	// DefaultLowStockThreshold applies when neither the item nor its category sets one.
	DefaultLowStockThreshold float64 `envconfig:"POS_INVENTORY_DEFAULT_LOW_STOCK_THRESHOLD" default:"5"`
	// CommonBottleSizesML lists the quick-pick bottle sizes offered on the stock form.
	CommonBottleSizesML []int         `envconfig:"POS_INVENTORY_COMMON_BOTTLE_SIZES_ML" default:"90,180,375,750,1000"`
	StockHistoryLimit   int           `envconfig:"POS_INVENTORY_STOCK_HISTORY_LIMIT" default:"50"`
	AlertCooldown       time.Duration `envconfig:"POS_INVENTORY_LOW_STOCK_ALERT_COOLDOWN" default:"6h"`
}

func (i InventoryConfig) validate() error {
	if i.DefaultLowStockThreshold < 0 {
		return fmt.Errorf("%s must be >= 0", EnvInventoryDefaultThreshold)
	}
	for _, size := range i.CommonBottleSizesML {
		if size <= 0 {
			return fmt.Errorf("%s entries must be positive, got %d", EnvInventoryBottleSizes, size)
		}
	}
	return nil
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"POS_CRON_INTERVAL" default:"15m"`
	LockTTL    time.Duration `envconfig:"POS_CRON_LOCK_TTL" default:"10m"`
	JobTimeout time.Duration `envconfig:"POS_CRON_JOB_TIMEOUT" default:"5m"`
	Jobs       []string      `envconfig:"POS_CRON_JOBS"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"POS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"POS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"POS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	InventoryTopic        string `envconfig:"POS_PUBSUB_INVENTORY_TOPIC" default:"pos-inventory-events"`
	AlertsTopic           string `envconfig:"POS_PUBSUB_ALERTS_TOPIC" default:"pos-inventory-alerts"`
	InventorySubscription string `envconfig:"POS_PUBSUB_INVENTORY_SUBSCRIPTION"`
	AlertsSubscription    string `envconfig:"POS_PUBSUB_ALERTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"POS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"POS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"POS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"POS_OUTBOX_RETENTION_DAYS" default:"30"`
	PruneBatchSize int `envconfig:"POS_OUTBOX_PRUNE_BATCH_SIZE" default:"500"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
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
