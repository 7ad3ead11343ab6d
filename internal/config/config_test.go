package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, DriverMySQL, c.DBDriver)
	assert.Equal(t, 300, c.IdempTTLSecs)
	assert.Equal(t, 5*time.Minute, c.IdempotencyTTL())
	assert.Equal(t, 10*time.Millisecond, c.BudgetRetryInterval)
	assert.NoError(t, c.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BUDGET_RETRY_MAX", "9")

	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.RedisDB)
	assert.Equal(t, uint64(9), c.BudgetRetryMax)
	assert.Contains(t, c.DSN(), "host=pg")
	assert.Contains(t, c.DSN(), "port=5432")
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=sqlite\nDB_PATH=/tmp/x.db\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("DB_PATH")
	})

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, c.DBDriver)
	assert.Equal(t, "/tmp/x.db", c.DSN())
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{AppPort: "8080", DBDriver: DriverMySQL, DBHost: "h", DBPort: "3306", DBName: "n", DBUser: "u", IdempTTLSecs: 1, ReminderConcurrency: 1}

	c := base
	assert.NoError(t, c.Validate())

	c = base
	c.DBDriver = "oracle"
	assert.Error(t, c.Validate())

	c = base
	c.DBPort = "not-a-port"
	assert.Error(t, c.Validate())

	c = base
	c.AppPort = ""
	assert.Error(t, c.Validate())

	c = base
	c.IdempTTLSecs = 0
	assert.Error(t, c.Validate())
}

func TestMySQLDSN(t *testing.T) {
	c := Config{DBUser: "u", DBPass: "p", DBHost: "db", DBPort: "3306", DBName: "assist"}
	assert.Equal(t, "u:p@tcp(db:3306)/assist?parseTime=true&loc=UTC&charset=utf8mb4,utf8", c.MySQLDSN())
}
