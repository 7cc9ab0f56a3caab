package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./pos.db
`)

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Database.Mode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Zero(t, cfg.License.ProbeTimeout())
	assert.Equal(t, DefaultLicenseSecret, cfg.License.Secret)
	require.NotNil(t, cfg.License.VerifyChecksum)
	assert.True(t, *cfg.License.VerifyChecksum)
	assert.Equal(t, time.Hour, cfg.License.CheckInterval)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  mode: local
  path: ./pos.db
license:
  secret: from-file
`)
	t.Setenv("POS_DB_MODE", "remote")
	t.Setenv("POS_DB_DSN", "postgres://pos@localhost/pos")
	t.Setenv("POS_LICENSE_SECRET", "from-env")

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, ModeRemote, cfg.Database.Mode)
	assert.Equal(t, "postgres://pos@localhost/pos", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.License.Secret)
	assert.Empty(t, cfg.Server.Host)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoad_ServerHost(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9000
database:
  path: ./pos.db
license:
  probe_timeout_seconds: 3
`)
	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, 3*time.Second, cfg.License.ProbeTimeout())

	t.Setenv("POS_HOST", "192.168.1.20")
	cfg, err = Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:9000", cfg.Server.Addr())
}

func TestLoad_RemoteWithoutDSN(t *testing.T) {
	path := writeConfig(t, `
database:
  mode: remote
`)
	_, err := Load(context.Background(), path)
	assert.Error(t, err)
}

func TestDatabaseConfig_ResolveMode(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       DatabaseConfig
		expected  string
		expectErr bool
	}{
		{name: "auto with path", cfg: DatabaseConfig{Path: "pos.db", DSN: "postgres://x"}, expected: ModeLocal},
		{name: "auto with dsn only", cfg: DatabaseConfig{DSN: "postgres://x"}, expected: ModeRemote},
		{name: "auto with nothing", cfg: DatabaseConfig{}, expectErr: true},
		{name: "explicit local", cfg: DatabaseConfig{Mode: "LOCAL", Path: "pos.db"}, expected: ModeLocal},
		{name: "local without path", cfg: DatabaseConfig{Mode: "local"}, expectErr: true},
		{name: "explicit remote", cfg: DatabaseConfig{Mode: "remote", Path: "pos.db"}, expected: ModeRemote},
		{name: "unknown mode", cfg: DatabaseConfig{Mode: "cloud"}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mode, err := tc.cfg.ResolveMode()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, mode)
		})
	}
}
