package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	internal "github.com/ZanzyTHEbar/payload-cache/pcache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()

	// Change to temp directory so no stray config.yaml is picked up
	err = os.Chdir(suite.tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(suite.T(), 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(suite.T(), int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(suite.T(), internal.DefaultDatabaseDriver, cfg.Database.Driver)
	assert.Equal(suite.T(), internal.DefaultDatabaseDSN, cfg.Database.DSN)
	assert.Equal(suite.T(), "WAL", cfg.Database.JournalMode)
	assert.Equal(suite.T(), 5000, cfg.Database.BusyTimeoutMS)
	assert.Equal(suite.T(), 4, cfg.Cache.TransformConcurrency)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
	assert.Equal(suite.T(), "json", cfg.Log.Format)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
server:
  addr: "127.0.0.1:9000"
  request_timeout: 2s
database:
  driver: "sqlite"
  dsn: "file:./test.db"
  busy_timeout_ms: 250
cache:
  transform_concurrency: 2
log:
  level: debug
  format: console
`

	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(suite.T(), 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(suite.T(), "sqlite", cfg.Database.Driver)
	assert.Equal(suite.T(), "file:./test.db", cfg.Database.DSN)
	assert.Equal(suite.T(), 250, cfg.Database.BusyTimeoutMS)
	assert.Equal(suite.T(), 2, cfg.Cache.TransformConcurrency)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
	assert.Equal(suite.T(), "console", cfg.Log.Format)

	// Unset keys keep their defaults
	assert.Equal(suite.T(), "NORMAL", cfg.Database.SyncMode)
}

func (suite *ConfigTestSuite) TestLoadConfigFromSearchPath() {
	err := os.WriteFile(filepath.Join(suite.tempDir, "config.yaml"), []byte("database:\n  driver: memory\n"), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "memory", cfg.Database.Driver)
}

func (suite *ConfigTestSuite) TestEnvironmentOverridesDefaults() {
	suite.T().Setenv("PCACHE_DATABASE_DRIVER", "sqlite")
	suite.T().Setenv("PCACHE_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "sqlite", cfg.Database.Driver)
	assert.Equal(suite.T(), "warn", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigRejectsUnknownDriver() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("database:\n  driver: postgres\n"), 0o644))

	_, err := LoadConfig(configFile)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "unsupported database driver")
}

func (suite *ConfigTestSuite) TestLoadConfigRejectsZeroConcurrency() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("cache:\n  transform_concurrency: 0\n"), 0o644))

	_, err := LoadConfig(configFile)
	require.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("server: [unterminated"), 0o644))

	_, err := LoadConfig(configFile)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "failed to read config file")
}

func (suite *ConfigTestSuite) TestWatchConfigWithoutFile() {
	watching, err := WatchConfig("", func(*Config) {})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), watching)
}
