package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "seen.json"), resolvePath("data", "seen.json"))
	assert.Equal(t, "/abs/seen.json", resolvePath("data", "/abs/seen.json"))
	assert.Equal(t, "", resolvePath("data", ""))
}

func TestLoadConfigBootstrapsDefault(t *testing.T) {
	for _, k := range []string{"EMAIL_USER", "SMTP_USERNAME", "EMAIL_PASS", "SMTP_PASSWORD", "RECIPIENT_EMAIL", "EMAIL_FROM", "SMTP_HOST", "SMTP_PORT", "JOBALERT_COMPANIES", "JOBALERT_STORE"} {
		t.Setenv(k, "")
	}
	t.Setenv("RECIPIENT_EMAIL", "me@example.com")
	dir := t.TempDir()

	cfg, err := loadConfig("", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.yml"))
	assert.Equal(t, filepath.Join(dir, "companies.xlsx"), cfg.Companies.Path)
	assert.Equal(t, filepath.Join(dir, "seen_jobs.json"), cfg.Store.Path)
	assert.Equal(t, "me@example.com", cfg.Notify.Recipient)
}

func TestDryRunEndToEnd(t *testing.T) {
	for _, k := range []string{"EMAIL_USER", "SMTP_USERNAME", "RECIPIENT_EMAIL", "JOBALERT_COMPANIES", "JOBALERT_STORE"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	// no sites are reachable: every target fails, the run still completes
	require.NoError(t, os.WriteFile(filepath.Join(dir, "companies.csv"),
		[]byte("Company,Country,URL\nAcme,UAE,http://127.0.0.1:1/careers\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"),
		[]byte("companies:\n  path: companies.csv\nfetch:\n  timeout_seconds: 2\n  retries: 0\n  requests_per_second: 0\n"), 0o644))

	cfg, err := loadConfig(filepath.Join(dir, "config.yml"), dir)
	require.NoError(t, err)

	var out bytes.Buffer
	a, err := build(cfg, buildOptions{dryRun: true, stdout: &out})
	require.NoError(t, err)
	defer a.Close()

	rep, err := a.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.ExitCode())
	require.Len(t, rep.Failures, 1)
	assert.Empty(t, out.String())
	assert.NoFileExists(t, filepath.Join(dir, "seen_jobs.json"))
}
