package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("billing-service")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Env)
	assert.Empty(t, cfg.Auth.SigningKey)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "billing_service", cfg.Metrics.Prefix)
	assert.Equal(t, 72*time.Hour, cfg.Invitations.DefaultTTL)
	assert.Equal(t, 336*time.Hour, cfg.Invitations.MaxTTL)
}

func TestLoad_ServicePortDefaults(t *testing.T) {
	tests := map[string]string{
		"api-gateway":        "3000",
		"onboarding-service": "3001",
		"billing-service":    "3002",
		"ticket-service":     "3003",
		"something-else":     "8080",
	}
	for service, port := range tests {
		t.Run(service, func(t *testing.T) {
			cfg, err := Load(service)
			require.NoError(t, err)
			assert.Equal(t, port, cfg.Server.Port)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "s3cret")
	t.Setenv("AUTH_OPTIONAL", "true")
	t.Setenv("NATS_URL", "nats://bus:4222")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("INVITATION_DEFAULT_TTL", "24h")

	cfg, err := Load("ticket-service")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.SigningKey)
	assert.True(t, cfg.Auth.Optional)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.Equal(t, 7, cfg.DB.MaxOpenConns)
	assert.Equal(t, 24*time.Hour, cfg.Invitations.DefaultTTL)
}

func TestLoad_RejectsDefaultTTLAboveMax(t *testing.T) {
	t.Setenv("INVITATION_DEFAULT_TTL", "400h")
	_, err := Load("onboarding-service")
	require.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}
