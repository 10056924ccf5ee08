package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/linemk/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsInitError(t *testing.T) {
	cfg := &config.Config{
		Env: "prod",
		Database: config.DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     1,
			User:     "postgres",
			Password: "postgres",
			Name:     "storefront",
			SSLMode:  "disable",
		},
	}

	// ошибка инициализации возвращается из run, а не завершает процесс
	err := run(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize app")
}
