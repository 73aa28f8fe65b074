package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDefaultMatchesDefault(t *testing.T) {
	dir := t.TempDir()
	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	d := Default()
	assert.Equal(t, d.Companies.Path, cfg.Companies.Path)
	assert.Equal(t, d.Fetch.Concurrency, cfg.Fetch.Concurrency)
	assert.Equal(t, d.Fetch.MaxBodyBytes, cfg.Fetch.MaxBodyBytes)
	assert.Equal(t, d.Store.Driver, cfg.Store.Driver)
	assert.Equal(t, d.Keys.Strategy, cfg.Keys.Strategy)
	assert.Equal(t, d.Filters.Countries, cfg.Filters.Countries)
	assert.Equal(t, d.Filters.TitleAny, cfg.Filters.TitleAny)
	assert.Equal(t, d.Schedule, cfg.Schedule)

	_, v := NormalizeAndValidate(cfg)
	assert.True(t, v.OK(), v.Errors)
}

func TestEnsureUserConfigKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: sqlite\n"), 0o644))

	got, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	cfg, err := Load(got)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "seen_jobs.json", cfg.Store.Path)
}

func TestLoadKeepsExplicitEmptyLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("filters:\n  countries: []\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Filters.Countries)

	_, v := NormalizeAndValidate(cfg)
	assert.True(t, v.OK())
	assert.NotEmpty(t, v.Warnings)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("fetch: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestOverlayEnv(t *testing.T) {
	env := map[string]string{
		"EMAIL_USER":      "alerts@example.com",
		"EMAIL_PASS":      "app-password",
		"RECIPIENT_EMAIL": " me@example.com ",
		"SMTP_PORT":       "465",
	}
	cfg := Default()
	OverlayEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, "alerts@example.com", cfg.Notify.Username)
	assert.Equal(t, "app-password", cfg.Notify.Password)
	assert.Equal(t, "me@example.com", cfg.Notify.Recipient)
	assert.Equal(t, "alerts@example.com", cfg.Notify.From)
	assert.Equal(t, 465, cfg.Notify.SMTPPort)
}

func TestOverlayEnvIgnoresBadPort(t *testing.T) {
	cfg := Default()
	OverlayEnv(&cfg, func(k string) string {
		if k == "SMTP_PORT" {
			return "smtp"
		}
		return ""
	})
	assert.Equal(t, 587, cfg.Notify.SMTPPort)
	assert.Empty(t, cfg.Notify.From)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "JOBALERT_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o644))

	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path)
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Filters.Countries = []string{" UAE ", "uae", "", "Qatar"}
	cfg.Store.Driver = " SQLite "
	cfg.Notify.Recipient = "me@example.com"
	cfg.Notify.Username = "alerts@example.com"

	out, v := NormalizeAndValidate(cfg)
	assert.True(t, v.OK(), v.Errors)
	assert.Empty(t, v.Warnings)
	assert.Equal(t, []string{"UAE", "Qatar"}, out.Filters.Countries)
	assert.Equal(t, "sqlite", out.Store.Driver)
	// input is not mutated
	assert.Len(t, cfg.Filters.Countries, 4)
}

func TestNormalizeAndValidateErrors(t *testing.T) {
	cfg := Default()
	cfg.Companies.Path = " "
	cfg.Fetch.Concurrency = 0
	cfg.Store.Driver = "postgres"
	cfg.Keys.Strategy = "title"
	cfg.Notify.Recipient = "not an address"
	cfg.Schedule.DailyAt = "7am"
	cfg.Schedule.Timezone = "Mars/Olympus"
	cfg.Schedule.Every = "30s"

	_, v := NormalizeAndValidate(cfg)
	require.False(t, v.OK())
	msg := v.Error()
	for _, want := range []string{
		"companies.path", "fetch.concurrency", "store.driver",
		"keys.strategy", "notify.recipient", "schedule.daily_at", "schedule.timezone", "schedule.every",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestInterval(t *testing.T) {
	cfg := Default()
	assert.Zero(t, cfg.Interval())
	cfg.Schedule.Every = "6h"
	assert.Equal(t, 6*time.Hour, cfg.Interval())
}
