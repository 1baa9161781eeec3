package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, ":8181", cfg.Server.Addr)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, int32(2), cfg.Currency.MinorUnits)
		assert.Equal(t, 300, cfg.Server.RequestsPerMinute)
		assert.Equal(t, int32(10), cfg.Database.MaxConns)
	})

	t.Run("should read yaml file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := "db:\n  host: db.internal\n  port: 6543\ncurrency:\n  code: JPY\n  minorunits: 0\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 6543, cfg.Database.Port)
		assert.Equal(t, "JPY", cfg.Currency.Code)
		assert.Equal(t, int32(0), cfg.Currency.MinorUnits)
		assert.Equal(t, "sitebook", cfg.Database.Name)
	})

	t.Run("should let environment override file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("db:\n  name: fromfile\n"), 0o600))
		t.Setenv("SITEBOOK_DB_NAME", "fromenv")
		t.Setenv("SITEBOOK_SERVER_ADDR", ":9000")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "fromenv", cfg.Database.Name)
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})

	t.Run("should reject more minor units than money is stored with", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		require.NoError(t, os.WriteFile(path, []byte("currency:\n  code: KWD\n  minorunits: 3\n"), 0o600))

		// when
		_, err := Load(path)

		// then
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
