package config

const (
	EnvPrefix = "FOODAPP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	TransportPubSub = "pubsub"
	TransportKafka  = "kafka"
)

const (
	EnvAppEnv         = "FOODAPP_APP_ENV"
	EnvPort           = "FOODAPP_APP_PORT"
	EnvLogLevel       = "FOODAPP_LOG_LEVEL"
	EnvDBDSN          = "FOODAPP_DB_DSN"
	EnvDBHost         = "FOODAPP_DB_HOST"
	EnvDBPort         = "FOODAPP_DB_PORT"
	EnvDBUser         = "FOODAPP_DB_USER"
	EnvDBPassword     = "FOODAPP_DB_PASSWORD"
	EnvDBName         = "FOODAPP_DB_NAME"
	EnvRedisURL       = "FOODAPP_REDIS_URL"
	EnvEventTransport = "FOODAPP_EVENT_TRANSPORT"
	EnvKafkaBrokers   = "FOODAPP_KAFKA_BROKERS"
	EnvMenuURL        = "FOODAPP_MENU_SERVICE_URL"
	EnvRestaurantURL  = "FOODAPP_RESTAURANT_SERVICE_URL"
	EnvLookupTimeout  = "FOODAPP_NOTIFICATION_LOOKUP_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
