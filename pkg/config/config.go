package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Kafka         KafkaConfig
	Outbox        OutboxConfig
	Upstreams     UpstreamsConfig
	Notifications NotificationsConfig
	Locks         LocksConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Eventing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOODAPP_APP_ENV" required:"true"`
	Port         string `envconfig:"FOODAPP_APP_PORT" required:"true"`
	MetricsPort  string `envconfig:"FOODAPP_METRICS_PORT" default:"9090"`
	LogLevel     string `envconfig:"FOODAPP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FOODAPP_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"FOODAPP_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FOODAPP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FOODAPP_DB_DSN"`
	Driver string `envconfig:"FOODAPP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOODAPP_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODAPP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODAPP_DB_USER"`
	LegacyPassword string `envconfig:"FOODAPP_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODAPP_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODAPP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOODAPP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODAPP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODAPP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODAPP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODAPP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOODAPP_REDIS_ADDR"`
	Password     string        `envconfig:"FOODAPP_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODAPP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODAPP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODAPP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODAPP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODAPP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODAPP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate      bool `envconfig:"FOODAPP_AUTO_MIGRATE" default:"false"`
	IdempotentFanout bool `envconfig:"FOODAPP_IDEMPOTENT_FANOUT" default:"true"`
}

// EventingConfig selects the transport shared by the outbox publisher and the
// notification worker.
type EventingConfig struct {
	Transport        string        `envconfig:"FOODAPP_EVENT_TRANSPORT" default:"pubsub"`
	OrderPlacedTopic string        `envconfig:"FOODAPP_ORDER_PLACED_TOPIC" default:"order_placed"`
	OrderStatusTopic string        `envconfig:"FOODAPP_ORDER_STATUS_TOPIC" default:"order_status_changed"`
	ConsumerGroup    string        `envconfig:"FOODAPP_CONSUMER_GROUP" default:"notification-service"`
	IdempotencyTTL   time.Duration `envconfig:"FOODAPP_EVENTING_IDEMPOTENCY_TTL" default:"168h"`
	MaxRedeliveries  int           `envconfig:"FOODAPP_EVENTING_MAX_REDELIVERIES" default:"5"`
}

func (e EventingConfig) UsesKafka() bool {
	return strings.EqualFold(strings.TrimSpace(e.Transport), TransportKafka)
}

func (e EventingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(e.Transport)) {
	case TransportPubSub, TransportKafka:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvEventTransport, TransportPubSub, TransportKafka)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FOODAPP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FOODAPP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FOODAPP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationSubscription string `envconfig:"FOODAPP_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"notification-service"`
}

type KafkaConfig struct {
	Brokers        []string      `envconfig:"FOODAPP_KAFKA_BROKERS" default:"localhost:9092"`
	ClientID       string        `envconfig:"FOODAPP_KAFKA_CLIENT_ID" default:"foodapp"`
	MinBytes       int           `envconfig:"FOODAPP_KAFKA_MIN_BYTES" default:"1"`
	MaxBytes       int           `envconfig:"FOODAPP_KAFKA_MAX_BYTES" default:"10000000"`
	MaxWait        time.Duration `envconfig:"FOODAPP_KAFKA_MAX_WAIT" default:"1s"`
	WriteTimeout   time.Duration `envconfig:"FOODAPP_KAFKA_WRITE_TIMEOUT" default:"10s"`
	CommitInterval time.Duration `envconfig:"FOODAPP_KAFKA_COMMIT_INTERVAL" default:"0s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FOODAPP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FOODAPP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FOODAPP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// UpstreamsConfig points at the menu and restaurant services.
type UpstreamsConfig struct {
	MenuServiceURL       string        `envconfig:"FOODAPP_MENU_SERVICE_URL" default:"http://localhost:8082"`
	RestaurantServiceURL string        `envconfig:"FOODAPP_RESTAURANT_SERVICE_URL" default:"http://localhost:8083"`
	ServiceToken         string        `envconfig:"FOODAPP_SERVICE_TOKEN"`
	RequestTimeout       time.Duration `envconfig:"FOODAPP_UPSTREAM_TIMEOUT" default:"3s"`
	BreakerFailures      uint32        `envconfig:"FOODAPP_UPSTREAM_BREAKER_FAILURES" default:"5"`
	BreakerOpenTimeout   time.Duration `envconfig:"FOODAPP_UPSTREAM_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

type NotificationsConfig struct {
	LookupTimeout time.Duration `envconfig:"FOODAPP_NOTIFICATION_LOOKUP_TIMEOUT" default:"3s"`
	PushTimeout   time.Duration `envconfig:"FOODAPP_NOTIFICATION_PUSH_TIMEOUT" default:"2s"`
	ChannelPrefix string        `envconfig:"FOODAPP_NOTIFICATION_CHANNEL_PREFIX" default:"foodapp:vendor"`
}

// LocksConfig bounds the per-order lock used by the lifecycle state machine.
type LocksConfig struct {
	TTL           time.Duration `envconfig:"FOODAPP_ORDER_LOCK_TTL" default:"10s"`
	RetryInterval time.Duration `envconfig:"FOODAPP_ORDER_LOCK_RETRY_INTERVAL" default:"25ms"`
	WaitTimeout   time.Duration `envconfig:"FOODAPP_ORDER_LOCK_WAIT_TIMEOUT" default:"5s"`
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
