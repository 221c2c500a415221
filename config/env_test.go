package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nAPP_PORT=4000\ndb_driver = \"postgres\"\n\nbroken-line\n=novalue\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out := defaultValues()
	require.NoError(t, mergeDotEnv(path, out))

	assert.Equal(t, "4000", out["APP_PORT"])
	assert.Equal(t, "postgres", out["DB_DRIVER"])
	assert.NotContains(t, out, "BROKEN-LINE")
}

func TestMergeJSONConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app_host":"0.0.0.0","db_max_open_conns":50,"debug":true,"nested":{"x":1}}`), 0o644))

	out := defaultValues()
	require.NoError(t, mergeJSONConfig(path, out))

	assert.Equal(t, "0.0.0.0", out["APP_HOST"])
	assert.Equal(t, "50", out["DB_MAX_OPEN_CONNS"])
	assert.Equal(t, "true", out["DEBUG"])
	assert.NotContains(t, out, "NESTED")
}

func TestMergeJSONConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	err := mergeJSONConfig(path, defaultValues())
	assert.Error(t, err)
}

func TestMergeEnvironSkipsEmpty(t *testing.T) {
	out := map[string]string{"APP_PORT": "3000", "APP_HOST": "localhost"}
	mergeEnviron([]string{"APP_PORT=8081", "APP_HOST=", "NOEQUALS"}, out)

	assert.Equal(t, "8081", out["APP_PORT"])
	assert.Equal(t, "localhost", out["APP_HOST"])
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092 "))
}

func TestDefaults(t *testing.T) {
	cfg, err := Snapshot()
	require.NoError(t, err)

	if os.Getenv("APP_PORT") == "" {
		assert.Equal(t, "3000", cfg.Port)
	}
	if os.Getenv("APP_HOST") == "" {
		assert.Equal(t, "localhost", cfg.Host)
	}
	assert.Equal(t, cfg.Host+":"+cfg.Port, cfg.Addr())
}

func TestTypedGetters(t *testing.T) {
	Set("TEST_INT", "42")
	Set("TEST_BAD_INT", "forty-two")
	Set("TEST_DURATION", "90s")

	assert.Equal(t, 42, GetInt("TEST_INT", 1))
	assert.Equal(t, 1, GetInt("TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, GetDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetDuration("TEST_MISSING", time.Second))
}

func TestDriverFallsBackToSQLite(t *testing.T) {
	Set("DB_DRIVER", "oracle")
	t.Cleanup(func() { Set("DB_DRIVER", defaultDatabaseDriver) })

	assert.Equal(t, "sqlite", DatabaseDriver())
}

func TestCacheDriverNormalised(t *testing.T) {
	Set("CACHE_DRIVER", "REDIS")
	t.Cleanup(func() { Set("CACHE_DRIVER", defaultCacheDriver) })
	assert.Equal(t, "redis", CacheDriver())

	Set("CACHE_DRIVER", "memcached")
	assert.Equal(t, "none", CacheDriver())
}
