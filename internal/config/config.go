package config

import (
	"errors"
	"time"

	"gymsubs/internal/database"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Database settings
	DBConnectionString string        `envconfig:"DB_CONNECTION_STRING" required:"true"`
	DBMaxConns         int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns         int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxConnIdleTime  time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
	DBMaxConnLifetime  time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	DBRetryAttempts    int           `envconfig:"DB_RETRY_ATTEMPTS" default:"3"`
	DBRetryInterval    time.Duration `envconfig:"DB_RETRY_INTERVAL" default:"2s"`

	// Auth settings. JWTSecretResource, when set, is a Secret Manager version name
	// (projects/*/secrets/*/versions/*) that replaces JWTSecret at startup.
	JWTSecret         string `envconfig:"JWT_SECRET"`
	JWTSecretResource string `envconfig:"JWT_SECRET_RESOURCE"`

	// Google Cloud settings
	GCPProjectID          string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile    string `envconfig:"GCP_CREDENTIALS_FILE"`
	PubSubPlanEventsTopic string `envconfig:"PUBSUB_PLAN_EVENTS_TOPIC"`
	PubSubEmulatorHost    string `envconfig:"PUBSUB_EMULATOR_HOST"`

	// Subscription settings
	DefaultPlanName          string   `envconfig:"DEFAULT_PLAN_NAME" default:"Free"`
	ExcludeApprovedExercises bool     `envconfig:"EXCLUDE_APPROVED_EXERCISES" default:"false"`
	CORSAllowedOrigins       []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

var ErrMissingJWTSecret = errors.New("either JWT_SECRET or JWT_SECRET_RESOURCE must be set")

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" && c.JWTSecretResource == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// EventsEnabled reports whether plan change events should be published.
func (c *Config) EventsEnabled() bool {
	return c.GCPProjectID != "" && c.PubSubPlanEventsTopic != ""
}

// PoolConfig returns the database pool settings.
func (c *Config) PoolConfig() database.PoolConfig {
	return database.PoolConfig{
		ConnectionString: c.DBConnectionString,
		MaxConns:         c.DBMaxConns,
		MinConns:         c.DBMinConns,
		MaxConnIdleTime:  c.DBMaxConnIdleTime,
		MaxConnLifetime:  c.DBMaxConnLifetime,
		RetryAttempts:    c.DBRetryAttempts,
		RetryInterval:    c.DBRetryInterval,
	}
}
