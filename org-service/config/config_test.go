package config

import (
	"context"
	"testing"
	"time"

	"github.com/automate/orgs-server/locks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(true)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "master_db", cfg.MasterDb)
	assert.Equal(t, 24*time.Hour, cfg.JwtExpires)
	assert.Equal(t, 5*time.Minute, cfg.RenameTimeout)
	assert.False(t, cfg.AllowAnonymousUpdate)
	assert.True(t, cfg.IsProduction)
	assert.Equal(t, 587, cfg.EmailConfig.SmtpPort)
}

func TestParseEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("RENAME_TIMEOUT", "30s")
	t.Setenv("ALLOW_ANONYMOUS_UPDATE", "true")
	t.Setenv("EMAIL_SMTP_HOST", "smtp.example.com")
	t.Setenv("EMAIL_FROM", "noreply@example.com")

	cfg, err := parse(false)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.RenameTimeout)
	assert.True(t, cfg.AllowAnonymousUpdate)
	assert.Equal(t, "smtp.example.com", cfg.EmailConfig.SmtpHost)
	assert.Equal(t, "noreply@example.com", cfg.EmailConfig.From)
}

func TestParseRejects(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := parse(true)
		assert.Error(t, err)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", DriverPostgres)
		_, err := parse(true)
		assert.Error(t, err)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("LOCK_WAIT", "soon")
		_, err := parse(true)
		assert.Error(t, err)
	})
}

func TestProviders(t *testing.T) {
	cfg := &Config{StoreDriver: DriverMemory, JwtSecret: "secret", JwtExpires: time.Hour}

	creds, err := ProvideCredentials(cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, creds.ExpireIn())

	_, err = ProvideCredentials(&Config{JwtPrivateKey: "not-a-key"})
	assert.Error(t, err)

	store, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close(context.Background())

	assert.IsType(t, &locks.Local{}, ProvideLocker(nil, cfg))

	lc := fxtest.NewLifecycle(t)
	_, err = ProvideManager(store, creds, ProvideLocker(nil, cfg), nil, cfg, lc)
	require.NoError(t, err)
	lc.RequireStart().RequireStop()
}
