package config

const EnvPrefix = "POS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:pos.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv   = "POS_APP_ENV"
	EnvPort     = "POS_APP_PORT"
	EnvLogLevel = "POS_LOG_LEVEL"

	EnvDBDSN    = "POS_DB_DSN"
	EnvDBDriver = "POS_DB_DRIVER"
	EnvDBHost   = "POS_DB_HOST"
	EnvDBUser   = "POS_DB_USER"
	EnvDBName   = "POS_DB_NAME"

	EnvRedisURL = "POS_REDIS_URL"

	EnvInventoryDefaultThreshold = "POS_INVENTORY_DEFAULT_LOW_STOCK_THRESHOLD"
	EnvInventoryBottleSizes      = "POS_INVENTORY_COMMON_BOTTLE_SIZES_ML"

	EnvCronInterval = "POS_CRON_INTERVAL"

	EnvGCPProjectID         = "POS_GCP_PROJECT_ID"
	EnvPubSubInventoryTopic = "POS_PUBSUB_INVENTORY_TOPIC"
	EnvPubSubAlertsTopic    = "POS_PUBSUB_ALERTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
