package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devYAML = `logger:
  level: debug
  format: text
sentry:
  enabled: false
database:
  host: localhost
  port: "5432"
  user: participation
  password: participation
  name: participation_dev
  sslmode: disable
redis:
  addr: localhost:6379
  db: 0
  pool_size: 10
campaign:
  name: hacktoberfest-2026
  start: "2026-10-01T00:00:00Z"
  end: "2026-11-01T00:00:00Z"
ops:
  addr: ":9090"
  shutdown_timeout: 15s
`

func writeConfigFile(t *testing.T, env, content string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", env+".yaml"), []byte(content), 0o600))
	t.Chdir(dir)
	t.Setenv("APP_ENV", env)
}

func TestLoad(t *testing.T) {
	writeConfigFile(t, "development", devYAML)

	cfg, v, err := Load()
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.False(t, cfg.Sentry.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, "hacktoberfest-2026", cfg.Campaign.Name)
	assert.Equal(t, ":9090", cfg.Ops.Addr)
	assert.Equal(t, 15*time.Second, cfg.Ops.ShutdownTimeout)

	start, end, err := cfg.Campaign.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_EnvOverride(t *testing.T) {
	writeConfigFile(t, "development", devYAML)
	t.Setenv("DATABASE_PASSWORD", "override-secret")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "override-secret", cfg.Database.Password)
	assert.Contains(t, cfg.Database.DSN(), "password=override-secret")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	const minimal = `database:
  host: localhost
  port: "5432"
  user: participation
  password: participation
  name: participation_dev
redis:
  addr: localhost:6379
campaign:
  name: hacktoberfest-2026
  start: "2026-10-01"
  end: "2026-11-01"
`
	writeConfigFile(t, "development", minimal)

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, ":9090", cfg.Ops.Addr)
	assert.Equal(t, 10*time.Second, cfg.Ops.ShutdownTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "development")

	_, _, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_MissingRequiredSection(t *testing.T) {
	const missingCampaign = `database:
  host: localhost
  port: "5432"
  user: participation
  password: participation
  name: participation_dev
redis:
  addr: localhost:6379
`
	writeConfigFile(t, "development", missingCampaign)

	_, _, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoad_RejectsInvertedCampaignWindow(t *testing.T) {
	const inverted = `database:
  host: localhost
  port: "5432"
  user: participation
  password: participation
  name: participation_dev
redis:
  addr: localhost:6379
campaign:
  name: hacktoberfest-2026
  start: "2026-11-01T00:00:00Z"
  end: "2026-10-01T00:00:00Z"
`
	writeConfigFile(t, "development", inverted)

	_, _, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedes start")
}

func TestCampaignConfig_Window(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     CampaignConfig
		wantErr string
	}{
		{
			name: "rfc3339 bounds",
			cfg:  CampaignConfig{Name: "fest", Start: "2026-10-01T00:00:00Z", End: "2026-11-01T00:00:00Z"},
		},
		{
			name: "date-only bounds",
			cfg:  CampaignConfig{Name: "fest", Start: "2026-10-01", End: "2026-11-01"},
		},
		{
			name:    "garbage start",
			cfg:     CampaignConfig{Name: "fest", Start: "next october", End: "2026-11-01"},
			wantErr: "campaign start",
		},
		{
			name:    "end precedes start",
			cfg:     CampaignConfig{Name: "fest", Start: "2026-11-01", End: "2026-10-01"},
			wantErr: "precedes start",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := tc.cfg.Window()

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, start.Before(end))
			assert.Equal(t, time.UTC, start.Location())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "svc",
		Password: "s3cret",
		Name:     "participation",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=svc password=s3cret dbname=participation sslmode=require",
		cfg.DSN(),
	)
}
