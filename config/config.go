package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName            string `env:"APP_NAME" env-default:"fern"`
	Port               int    `env:"PORT" env-default:"3004"`
	LogLevel           string `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs         bool   `env:"PRETTY_LOGS" env-default:"false"`
	StartupMaxAttempts int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Database driver
	DatabaseDriver string `env:"DB_DRIVER" env-default:"postgres"`
	// Database host
	DatabaseHost string `env:"DB_HOST" env-default:""`
	// Database port
	DatabasePort string `env:"DB_PORT" env-default:"5432"`
	// Database user
	DatabaseUserName string `env:"DB_USER_NAME" env-default:""`
	// Database user password
	DatabasePassword string `env:"DB_PASSWORD" env-default:""`
	// Database name
	DatabaseName string `env:"DB_NAME" env-default:"fern"`
	// Database schema holding the plant tables; empty uses the search path
	DatabaseSchema string `env:"DB_SCHEMA" env-default:""`
	// Database SSL Mode
	DatabaseSSLMode string `env:"DB_SQL_MODE" env-default:"disable"`
	// Max Open Conns
	DatabaseMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	// Max Idle Conns
	DatabaseMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	// Conn Max Lifetime
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	// Migration Folder Path
	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	// Database Migration Version
	DatabaseMigrationVersion int `env:"DB_MIGRATION_VERSION" env-default:"0"`
	// Database Migration Force
	DatabaseMigrationForce int `env:"DB_MIGRATION_FORCE" env-default:"0"`
	// Database Migration Auto Rollback
	DatabaseMigrationAutoRollback bool `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Plant API
	PlantAPIBaseURL  string        `env:"PLANT_API_BASE_URL" env-default:"" validate:"required,url"`
	PlantStartID     int           `env:"PLANT_START_ID" env-default:"1" validate:"min=0"`
	PlantTargetCount int           `env:"PLANT_TARGET_COUNT" env-default:"50" validate:"min=1"`
	PlantMaxAttempts int           `env:"PLANT_MAX_ATTEMPTS" env-default:"100" validate:"min=1"`
	ExtractWorkers   int           `env:"EXTRACT_WORKERS" env-default:"8" validate:"min=1"`
	PlantAPITimeout  time.Duration `env:"PLANT_API_TIMEOUT" env-default:"10s"`

	// Loading
	LoadPolicy   string `env:"LOAD_POLICY" env-default:"append_if_absent" validate:"oneof=append_if_absent upsert"`
	ArtifactsDir string `env:"ARTIFACTS_DIR" env-default:""`

	// Archive (S3-compatible object store)
	ArchiveEnabled   bool   `env:"ARCHIVE_ENABLED" env-default:"false"`
	ArchiveBucket    string `env:"ARCHIVE_BUCKET" env-default:""`
	ArchiveRegion    string `env:"ARCHIVE_REGION" env-default:"us-east-1"`
	ArchiveEndpoint  string `env:"ARCHIVE_ENDPOINT" env-default:""`
	ArchivePathStyle bool   `env:"ARCHIVE_PATH_STYLE" env-default:"false"`
	ArchiveKeyPrefix string `env:"ARCHIVE_KEY_PREFIX" env-default:""`
	// How far back the archive command reads recordings
	SummaryWindow time.Duration `env:"SUMMARY_WINDOW" env-default:"24h"`

	// Kafka
	KafkaBrokers    string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaAlertTopic string `env:"KAFKA_ALERT_TOPIC" env-default:"plant-alerts"`

	// Redis host
	RedisHost string `env:"REDIS_HOST" env-default:"localhost"`
	// Redis port
	RedisPort int `env:"REDIS_PORT" env-default:"6379"`
	// Redis password
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	// Redis database number
	RedisDB int `env:"REDIS_DB" env-default:"0"`
	// Key prefix for distributed locks
	RedisLockPrefix string `env:"REDIS_LOCK_PREFIX" env-default:"fern:"`

	// Alerting
	AlertPollInterval    time.Duration `env:"ALERT_POLL_INTERVAL" env-default:"1m"`
	AlertLookback        time.Duration `env:"ALERT_LOOKBACK" env-default:"2m"`
	AlertTemperatureMin  float64       `env:"ALERT_TEMPERATURE_MIN" env-default:"9"`
	AlertTemperatureMax  float64       `env:"ALERT_TEMPERATURE_MAX" env-default:"30"`
	AlertSoilMoistureMin float64       `env:"ALERT_SOIL_MOISTURE_MIN" env-default:"20"`
	AlertSoilMoistureMax float64       `env:"ALERT_SOIL_MOISTURE_MAX" env-default:"100"`

	// Tracing
	TracingEnabled  bool          `env:"TRACING_ENABLED" env-default:"false"`
	TracingEndpoint string        `env:"TRACING_ENDPOINT" env-default:"localhost:4317"`
	TracingProtocol string        `env:"TRACING_PROTOCOL" env-default:"grpc"`
	TracingInsecure bool          `env:"TRACING_INSECURE" env-default:"true"`
	TracingTimeout  time.Duration `env:"TRACING_TIMEOUT" env-default:"5s"`
}

var validate = validator.New()

// Load reads .env when present, binds the environment, and validates the
// result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
