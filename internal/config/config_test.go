package config_test

import (
	"testing"
	"time"

	"github.com/horockey/kvstore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	for _, env := range []string{
		"PORT", "APP_NAME", "STORE_BACKEND", "MONGODB_HOST", "KEY_VALUE_DB",
		"KEY_VALUE_COLLECTION", "DB_CONNECT_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(env, "")
	}

	cfg, err := config.Load(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, config.BackendMongo, cfg.Backend)
	assert.Equal(t, "key-value-db", cfg.Database)
	assert.Equal(t, "keyvalues", cfg.Collection)
	assert.Equal(t, 500*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, "localhost:27017", cfg.DBHost())
}

func Test_Load_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_NAME", "my-app")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("POSTGRES_HOST", "pg:5432")
	t.Setenv("KEY_VALUE_DB", "kv")
	t.Setenv("KEY_VALUE_USER", "user")
	t.Setenv("KEY_VALUE_PASSWORD", "secret")
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "my-app", cfg.AppName)
	assert.Equal(t, config.BackendPostgres, cfg.Backend)
	assert.Equal(t, "pg:5432", cfg.DBHost())
	assert.Equal(t, "kv", cfg.Database)
	assert.Equal(t, "user", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func Test_Load_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad port":      {"PORT": "70000"},
		"bad backend":   {"STORE_BACKEND": "redis"},
		"bad timeout":   {"DB_CONNECT_TIMEOUT": "-1s"},
		"bad log level": {"LOG_LEVEL": "loud"},
		"bad format":    {"LOG_FORMAT": "xml"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load(config.NewViper())
			assert.Error(t, err)
		})
	}
}

func Test_EnvName(t *testing.T) {
	assert.Equal(t, "MONGODB_HOST", config.EnvName(config.KeyMongoHost))
	assert.Equal(t, "KEY_VALUE_PASSWORD", config.EnvName(config.KeyPassword))
}
