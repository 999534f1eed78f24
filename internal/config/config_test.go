package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "open_factcheck", cfg.Database.DBName)
	assert.Equal(t, 30*time.Second, cfg.Ranking.CacheTTL)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.True(t, cfg.Worker.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("RANKING_CACHE_TTL", "0s")
	t.Setenv("JWT_SECRET", "k")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, time.Duration(0), cfg.Ranking.CacheTTL)
	assert.Equal(t, "k", cfg.Auth.JWTSecret)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "port: \"7000\"\ndatabase:\n  host: db.internal\nranking:\n  cache_ttl: 1m\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, time.Minute, cfg.Ranking.CacheTTL)
}

func TestLoadRejectsNegativeTTL(t *testing.T) {
	t.Setenv("RANKING_CACHE_TTL", "-1s")

	_, err := Load("")
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u dbname=n sslmode=disable", d.DSN())

	d.Password = "p"
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
