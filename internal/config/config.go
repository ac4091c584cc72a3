// Package config turns environment variables, .env files and command line
// flags into a single typed Config built once at startup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
	BackendBadger   Backend = "badger"
	BackendMemory   Backend = "memory"
)

// Viper keys. Flags use the same names.
const (
	KeyPort           = "port"
	KeyAppName        = "app-name"
	KeyBackend        = "store-backend"
	KeyMongoHost      = "mongodb-host"
	KeyPostgresHost   = "postgres-host"
	KeyDatabase       = "db"
	KeyUser           = "db-user"
	KeyPassword       = "db-password"
	KeyCollection     = "collection"
	KeyConnectTimeout = "connect-timeout"
	KeyBadgerDir      = "badger-dir"
	KeyAPIKey         = "api-key"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyAdminUser      = "admin-user"
	KeyAdminPassword  = "admin-password"
)

// envNames maps viper keys to the environment variables they are read from.
var envNames = map[string]string{
	KeyPort:           "PORT",
	KeyAppName:        "APP_NAME",
	KeyBackend:        "STORE_BACKEND",
	KeyMongoHost:      "MONGODB_HOST",
	KeyPostgresHost:   "POSTGRES_HOST",
	KeyDatabase:       "KEY_VALUE_DB",
	KeyUser:           "KEY_VALUE_USER",
	KeyPassword:       "KEY_VALUE_PASSWORD",
	KeyCollection:     "KEY_VALUE_COLLECTION",
	KeyConnectTimeout: "DB_CONNECT_TIMEOUT",
	KeyBadgerDir:      "BADGER_DIR",
	KeyAPIKey:         "API_KEY",
	KeyLogLevel:       "LOG_LEVEL",
	KeyLogFormat:      "LOG_FORMAT",
	KeyAdminUser:      "MONGO_INITDB_ROOT_USERNAME",
	KeyAdminPassword:  "MONGO_INITDB_ROOT_PASSWORD",
}

var defaults = map[string]any{
	KeyPort:           3000,
	KeyAppName:        "kvstore",
	KeyBackend:        string(BackendMongo),
	KeyMongoHost:      "localhost:27017",
	KeyPostgresHost:   "localhost:5432",
	KeyDatabase:       "key-value-db",
	KeyCollection:     "keyvalues",
	KeyConnectTimeout: 500 * time.Millisecond,
	KeyBadgerDir:      "./badger",
	KeyLogLevel:       "info",
	KeyLogFormat:      "console",
}

type Config struct {
	Port    int
	AppName string

	Backend        Backend
	MongoHost      string
	PostgresHost   string
	Database       string
	Username       string
	Password       string
	Collection     string
	ConnectTimeout time.Duration
	BadgerDir      string

	// APIKey, when set, is required in X-Api-Key on /store routes.
	APIKey string

	LogLevel  string
	LogFormat string

	AdminUser     string
	AdminPassword string
}

// LoadDotEnv loads .env and .env.local if present. Variables already set
// in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// NewViper returns a viper instance with defaults and env bindings applied.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}
	return v
}

// EnvName returns the environment variable bound to key.
func EnvName(key string) string {
	return envNames[key]
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:           v.GetInt(KeyPort),
		AppName:        v.GetString(KeyAppName),
		Backend:        Backend(strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend)))),
		MongoHost:      v.GetString(KeyMongoHost),
		PostgresHost:   v.GetString(KeyPostgresHost),
		Database:       v.GetString(KeyDatabase),
		Username:       v.GetString(KeyUser),
		Password:       v.GetString(KeyPassword),
		Collection:     v.GetString(KeyCollection),
		ConnectTimeout: v.GetDuration(KeyConnectTimeout),
		BadgerDir:      v.GetString(KeyBadgerDir),
		APIKey:         v.GetString(KeyAPIKey),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		AdminUser:      v.GetString(KeyAdminUser),
		AdminPassword:  v.GetString(KeyAdminPassword),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	var errs []error

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be in 1..65535, got: %d", envNames[KeyPort], cfg.Port))
	}

	switch cfg.Backend {
	case BackendMongo, BackendPostgres:
		if cfg.Database == "" {
			errs = append(errs, fmt.Errorf("%s is required for %s", envNames[KeyDatabase], cfg.Backend))
		}
	case BackendBadger:
		if cfg.BadgerDir == "" {
			errs = append(errs, fmt.Errorf("%s is required for badger", envNames[KeyBadgerDir]))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown %s: %q", envNames[KeyBackend], cfg.Backend))
	}

	if cfg.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got: %s", envNames[KeyConnectTimeout], cfg.ConnectTimeout))
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("parsing %s: %w", envNames[KeyLogLevel], err))
	}

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%s must be console or json, got: %q", envNames[KeyLogFormat], cfg.LogFormat))
	}

	return errors.Join(errs...)
}

func (cfg Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
}

// DBHost is the host of the configured network backend, empty for local ones.
func (cfg Config) DBHost() string {
	switch cfg.Backend {
	case BackendMongo:
		return cfg.MongoHost
	case BackendPostgres:
		return cfg.PostgresHost
	default:
		return ""
	}
}
