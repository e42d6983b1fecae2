package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-hris-engine/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 12, cfg.Leave.CasualLeave)
	assert.Equal(t, 8, cfg.Payroll.Workers)
	assert.Equal(t, 30*time.Second, cfg.Payroll.LockTTL)
	assert.Equal(t, 30*time.Minute, cfg.Payroll.RunTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "host=localhost user=postgres password= dbname=hris port=5432 sslmode=disable", cfg.Database.DSN())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HRIS_PAYROLL_WORKERS", "3")
	t.Setenv("HRIS_LEAVE_CASUAL_LEAVE", "7")
	t.Setenv("HRIS_DATABASE_HOST", "db.internal")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Payroll.Workers)
	assert.Equal(t, 7, cfg.Leave.CasualLeave)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("payroll:\n  workers: 2\n  payslip_dir: /tmp/slips\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Payroll.Workers)
	assert.Equal(t, "/tmp/slips", cfg.Payroll.PayslipDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HRIS_LOGGING_LEVEL", "verbose")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_RejectsLockWithoutExpiry(t *testing.T) {
	t.Setenv("HRIS_PAYROLL_LOCK_TTL", "0s")

	_, err := config.Load("")
	assert.Error(t, err)
}
