package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/mockbus.db", cfg.DBPath)
	assert.Equal(t, "http://artemis:8161/console/jolokia", cfg.Artemis.JolokiaURL)
	assert.Equal(t, "http://artemis:8162", cfg.Artemis.UserAPIURL)
	assert.Equal(t, 6698, cfg.Artemis.AMQPPort)
	assert.Empty(t, cfg.ReconcileSchedule)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"port": "9090",
		"log_level": "debug",
		"reconcile_schedule": "@every 5m",
		"artemis": {
			"jolokia_url": "http://broker:8161/console/jolokia",
			"user_api_url": "http://broker:8162",
			"admin_user": "ops",
			"admin_pass": "p",
			"amqp_port": 5672
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "@every 5m", cfg.ReconcileSchedule)
	assert.Equal(t, "ops", cfg.Artemis.AdminUser)
	assert.Equal(t, 5672, cfg.Artemis.AMQPPort)

	// values absent from the file keep their defaults
	assert.Equal(t, "data/mockbus.db", cfg.DBPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JOLOKIA_URL", "http://env:8161/console/jolokia")
	t.Setenv("ARTEMIS_ADMIN_PASS", "env-pass")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "http://env:8161/console/jolokia", cfg.Artemis.JolokiaURL)
	assert.Equal(t, "env-pass", cfg.Artemis.AdminPass)
	assert.Equal(t, "admin", cfg.Artemis.AdminUser)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
