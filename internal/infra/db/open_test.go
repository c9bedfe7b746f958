package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetConnectionConfigFromEnv_Defaults(t *testing.T) {
	cfg := getConnectionConfigFromEnv()

	assert.Equal(t, DefaultConnectionConfig(), cfg)
}

func TestGetConnectionConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "40")
	t.Setenv("DB_MAX_IDLE_CONNS", "10")
	t.Setenv("DB_CONN_MAX_LIFETIME", "2h")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "15m")

	cfg := getConnectionConfigFromEnv()

	assert.Equal(t, 40, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 2*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 15*time.Minute, cfg.ConnMaxIdleTime)
}

func TestGetConnectionConfigFromEnv_RejectsNonPositive(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "0")
	t.Setenv("DB_MAX_IDLE_CONNS", "-3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "-1h")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "0s")

	cfg := getConnectionConfigFromEnv()

	assert.Equal(t, DefaultConnectionConfig(), cfg)
}

func TestGetConnectionConfigFromEnv_MalformedFallsBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("DB_CONN_MAX_LIFETIME", "an hour or so")

	cfg := getConnectionConfigFromEnv()

	assert.Equal(t, DefaultConnectionConfig(), cfg)
}
