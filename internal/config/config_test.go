package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("valores padrão", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, DriverSQLite, cfg.DB.Driver)
		assert.Equal(t, "nutriplan", cfg.Mongo.Database)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
		assert.False(t, cfg.SESEnabled())
	})

	t.Run("variáveis de ambiente sobrescrevem", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("NUTRIPLAN_SERVER_PORT", "9090")
		t.Setenv("NUTRIPLAN_DB_DRIVER", "mongo")
		t.Setenv("NUTRIPLAN_AUTH_JWT_SECRET", "segredo")
		t.Setenv("NUTRIPLAN_NOTIFY_SES_REGION", "sa-east-1")
		t.Setenv("NUTRIPLAN_NOTIFY_FROM_EMAIL", "planos@nutriplan.app")
		t.Setenv("NUTRIPLAN_SHUTDOWN_TIMEOUT", "3s")
		t.Setenv("NUTRIPLAN_LOG_DEVELOPMENT", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, DriverMongo, cfg.DB.Driver)
		assert.Equal(t, "segredo", cfg.Auth.JWTSecret)
		assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
		assert.True(t, cfg.Log.Development)
		assert.True(t, cfg.SESEnabled())
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.DB.Driver = DriverSQLite
		c.DB.Path = "./teste.db"
		c.Auth.JWTSecret = "segredo"
		return c
	}

	assert.NoError(t, base().Validate())

	tests := []struct {
		name string
		edit func(c *Config)
	}{
		{"driver desconhecido", func(c *Config) { c.DB.Driver = "postgres" }},
		{"sqlite sem caminho", func(c *Config) { c.DB.Path = "" }},
		{"mongo sem uri", func(c *Config) { c.DB.Driver = DriverMongo }},
		{"sem segredo JWT", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"SES sem remetente", func(c *Config) { c.Notify.SESRegion = "us-east-1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.edit(c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir muda o diretório de trabalho durante o teste e o restaura ao final
// (equivalente a testing.T.Chdir, indisponível antes do Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
