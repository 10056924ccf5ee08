package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/linemk/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_test_*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestMustLoadByPath_Success(t *testing.T) {
	// Устанавливаем обязательные переменные окружения
	t.Setenv("DB_PASSWORD", "mypassword")
	t.Setenv("JWT_SECRET", "mysecret")
	t.Setenv("ADMIN_SECRET", "admin123")

	path := writeConfig(t, `
env: "local"
http_server:
  address: "localhost:5000"
  timeout: "4s"
  idle_timeout: "60s"
database:
  host: "localhost"
  port: 5432
  user: "postgres"
  name: "storefront"
  sslmode: "disable"
admin:
  token_ttl: 30
cors:
  allow_origins: ["http://localhost:3000"]
orders:
  strict_transitions: true
metrics:
  enabled: false
  service_name: "storefront-test"
  interval: "5s"
migrations:
  path: "./migrations"
`)

	cfg := config.MustLoadByPath(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:5000", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "mypassword", cfg.Database.Password)
	assert.Equal(t, "storefront", cfg.Database.Name)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "admin123", cfg.Admin.Secret)
	assert.Equal(t, 30, cfg.Admin.TokenTTL)
	assert.Equal(t, "mysecret", cfg.JWT.Secret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowOrigins)
	assert.True(t, cfg.Orders.StrictTransitions)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "storefront-test", cfg.Metrics.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.Metrics.Interval)
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
}

func TestMustLoadByPath_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "mypassword")
	t.Setenv("JWT_SECRET", "mysecret")
	t.Setenv("ADMIN_SECRET", "admin123")

	path := writeConfig(t, `
database:
  user: "postgres"
  name: "storefront"
`)

	cfg := config.MustLoadByPath(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:5000", cfg.HTTPServer.Address)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 60, cfg.Admin.TokenTTL)
	assert.False(t, cfg.Orders.StrictTransitions)
	assert.Equal(t, "storefront", cfg.Metrics.ServiceName)
	assert.Equal(t, 10*time.Second, cfg.Metrics.Interval)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	// Ожидаем панику, если файла не существует
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "shop",
		Password: "p@ss word",
		Name:     "storefront",
		SSLMode:  "require",
	}
	assert.Equal(t, "postgres://shop:p%40ss%20word@db:5433/storefront?sslmode=require", db.DSN())
}
