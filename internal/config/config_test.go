package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yaml")
	err := os.WriteFile(path, []byte(`
env: local
db_user: reports
db_name: collect
users:
  operator: secret
report:
  workers: 2
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "reports", cfg.DBUser)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 3306, cfg.DBPort)
	assert.Equal(t, "localhost:4001", cfg.Address)
	assert.Equal(t, 4*time.Second, cfg.Timeout)
	assert.Equal(t, map[string]string{"operator": "secret"}, cfg.Users)
	assert.Equal(t, 2, cfg.Report.Workers)
	assert.Equal(t, 30*time.Second, cfg.Report.GenerateTimeout)
	assert.Equal(t, "errors.log", cfg.ErrorLog)
}

func TestLoad_MissingRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: local\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
