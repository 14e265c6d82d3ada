package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/ppiankov/tenderwatch/internal/notify"
	"github.com/ppiankov/tenderwatch/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every environment name the loader reads and points HOME at an empty directory
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range legacyEnv {
		t.Setenv(name, "")
	}
	for _, name := range []string{
		"TENDERWATCH_SMTP_TO", "TENDERWATCH_SMTP_HOST", "TENDERWATCH_SMTP_PORT",
		"TENDERWATCH_SMTP_USER", "TENDERWATCH_SMTP_PASS",
		"TENDERWATCH_HEARTBEAT_ENABLED", "TENDERWATCH_HEARTBEAT_HOUR_UTC",
		"TENDERWATCH_STATE_PATH", "TENDERWATCH_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, used, err := loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", `
http:
  timeout: 10s
smtp:
  port: 465
  to: alerts@example.com
state:
  path: /tmp/seen.json
sources:
  - name: Example
    url: https://example.com/tenders
    selector: "table.tenders a"
`)

	cfg, used, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.RetryAttempts)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "smtp.mail.yahoo.com", cfg.SMTP.Host)
	assert.Equal(t, "alerts@example.com", cfg.SMTP.To)
	assert.Equal(t, "/tmp/seen.json", cfg.State.Path)
	assert.Equal(t, []model.SourceConfig{
		{Name: "Example", URL: "https://example.com/tenders", Selector: "table.tenders a"},
	}, cfg.Sources)
}

func TestLoadConfig_LegacyEnv(t *testing.T) {
	isolate(t)
	t.Setenv("ALERT_TO", "me@example.com")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("HEARTBEAT_ENABLE", "false")
	t.Setenv("HEARTBEAT_HOUR_UTC", "7")

	cfg, _, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", cfg.SMTP.To)
	assert.Equal(t, "bot@example.com", cfg.SMTP.User)
	assert.Equal(t, "secret", cfg.SMTP.Pass)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.Configured())
	assert.False(t, cfg.Heartbeat.Enabled)
	assert.Equal(t, 7, cfg.Heartbeat.HourUTC)
}

func TestLoadConfig_PrefixedEnvWins(t *testing.T) {
	isolate(t)
	t.Setenv("ALERT_TO", "legacy@example.com")
	t.Setenv("TENDERWATCH_SMTP_TO", "prefixed@example.com")
	t.Setenv("TENDERWATCH_STATE_PATH", "/var/lib/tenderwatch/seen.json")

	cfg, _, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed@example.com", cfg.SMTP.To)
	assert.Equal(t, "/var/lib/tenderwatch/seen.json", cfg.State.Path)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", "smtp:\n  to: file@example.com\n")
	t.Setenv("ALERT_TO", "env@example.com")

	cfg, _, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env@example.com", cfg.SMTP.To)
}

func TestLoadConfig_Errors(t *testing.T) {
	isolate(t)

	_, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, "config.yaml", "heartbeat:\n  hour_utc: 24\n")
	_, _, err = loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hour_utc")

	path = writeFile(t, "config.yaml", "sources: []\n")
	_, _, err = loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source")
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, writeDefaultConfig(path))

	cfg, _, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)

	err = writeDefaultConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestBuildPipeline(t *testing.T) {
	isolate(t)
	cfg := model.DefaultConfig()
	cfg.Keywords.Path = filepath.Join(t.TempDir(), "missing.txt")

	p, err := buildPipeline(cfg, logger.NewNop(), true)
	require.NoError(t, err)
	assert.NotNil(t, p)

	cfg.Sources = append(cfg.Sources, model.SourceConfig{Name: "bad", URL: "https://example.com", Selector: "a[["})
	_, err = buildPipeline(cfg, logger.NewNop(), true)
	assert.Error(t, err)
}

func TestPrintDigest_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	summary := &pipeline.RunSummary{Cycle: &pipeline.CycleResult{Checked: 12}}

	require.NoError(t, printDigest(&buf, summary))
	assert.Contains(t, buf.String(), "Subject: "+notify.SubjectPrefix+" No new software/ICT notices")
	assert.Contains(t, buf.String(), "scanned 12 items")
}
