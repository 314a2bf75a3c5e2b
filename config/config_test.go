package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, 5, c.ShardRate)
	assert.Equal(t, 100, c.MasteryBase)
	assert.Equal(t, 1.2, c.MasteryGrowth)
	assert.Equal(t, 5, c.LedgerMaxRetries)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
}

func TestApplyDefaultsPostgresPort(t *testing.T) {
	c := AppConfig{DBDriver: "postgres"}
	applyDefaults(&c)
	assert.Equal(t, "5432", c.DBPort)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLITE")
	t.Setenv("SHARD_RATE", "10")
	t.Setenv("MASTERY_GROWTH", "1.5")
	t.Setenv("ADMIN_USERNAMES", "alice, bob ,")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 10, c.ShardRate)
	assert.Equal(t, 1.5, c.MasteryGrowth)
	assert.Equal(t, []string{"alice", "bob"}, c.AdminUsernames)
	assert.True(t, c.IsAdmin("ALICE"))
	assert.False(t, c.IsAdmin("carol"))
	assert.False(t, c.IsAdmin(" "))
}

func TestLoadJSONConfigGroupedSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	doc := `{
		"app": {"AppPort": "9000", "JWTSecret": "s3cret", "AdminUsernames": ["root"]},
		"database": {"Driver": "postgres", "Host": "db", "Name": "sigil_test"},
		"progression": {"ShardRate": 4, "MasteryGrowth": 1.3, "PactRewardPoints": 25}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "db", c.DBHost)
	assert.Equal(t, 4, c.ShardRate)
	assert.Equal(t, 1.3, c.MasteryGrowth)
	assert.Equal(t, 25, c.PactRewardPoints)

	assert.NoError(t, loadJSONConfig(filepath.Join(dir, "missing.json"), &c))

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file::memory:", DSN(AppConfig{DBDriver: "sqlite", DatabaseURI: "file::memory:"}))
	assert.Equal(t, "sigil.db", DSN(AppConfig{DBDriver: "sqlite", DBName: "sigil"}))
	assert.Contains(t, DSN(AppConfig{DBDriver: "postgres", DBHost: "h", DBPort: "5432", DBName: "n"}), "host=h port=5432")
	assert.Contains(t, DSN(AppConfig{DBDriver: "mysql", DBUser: "u", DBHost: "h", DBPort: "3306", DBName: "n"}), "u:@tcp(h:3306)/n")
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := OpenDatabase("oracle", "", "silent")
	assert.Error(t, err)
}
