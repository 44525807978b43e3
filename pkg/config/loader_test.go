package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadConfig_MergesEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":8080"
redis:
  addr: localhost:6379
  db: 0
`)
	writeFile(t, dir, "staging.yaml", `
redis:
  addr: redis:6379
`)

	merged, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	redis := merged["redis"].(map[string]interface{})
	assert.Equal(t, "redis:6379", redis["addr"])
	assert.Equal(t, 0, redis["db"])
	assert.Equal(t, ":8080", merged["server"].(map[string]interface{})["port"])
}

func TestLoadConfig_MissingOverlayUsesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "mq:\n  url: amqp://base\n")

	merged, err := LoadConfig("nowhere", dir)
	require.NoError(t, err)
	assert.Equal(t, "amqp://base", merged["mq"].(map[string]interface{})["url"])
}

func TestLoadConfig_MissingBaseFails(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	assert.Error(t, err)
}

func TestLoadConfig_SubstitutesSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  password: ${DB_PASSWORD}\n  user: app\n")
	writeFile(t, dir, "secrets.env", "# local secrets\nDB_PASSWORD=\"s3cr=t\"\nMALFORMED\n")

	merged, err := LoadConfig("local", dir)
	require.NoError(t, err)

	db := merged["db"].(map[string]interface{})
	assert.Equal(t, "s3cr=t", db["password"])
	assert.Equal(t, "app", db["user"])
}

func TestDecode(t *testing.T) {
	var out struct {
		Assets AssetsConfig `yaml:"assets"`
		DB     DBConfig     `yaml:"db"`
	}
	merged := map[string]interface{}{
		"assets": map[string]interface{}{"base_url": "file://./public", "timeout": "3s"},
		"db":     map[string]interface{}{"port": 5433, "slow_query_threshold": "250ms"},
	}

	require.NoError(t, Decode(merged, &out))
	assert.Equal(t, "file://./public", out.Assets.BaseURL)
	assert.Equal(t, "3s", out.Assets.Timeout.String())
	assert.Equal(t, 5433, out.DB.Port)
	assert.Equal(t, "250ms", out.DB.SlowQueryThreshold.String())
}

func TestOverridePersistenceFromEnv(t *testing.T) {
	t.Setenv("PERSISTENCE_DRIVER", "postgres")
	t.Setenv("PERSISTENCE_STRICT", "true")

	cfg := PersistenceConfig{Driver: "redis"}
	OverridePersistenceFromEnv(&cfg)

	assert.Equal(t, "postgres", cfg.Driver)
	assert.True(t, cfg.Strict)
}
