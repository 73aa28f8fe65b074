package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

//go:embed default.yml
var defaultYAML []byte

// EnsureUserConfig returns <dataDir>/config.yml, writing the embedded default
// there on first start. An existing file is never overwritten, even when two
// processes bootstrap the same directory at once.
func EnsureUserConfig(dataDir string) (string, error) {
	path := filepath.Join(dataDir, "config.yml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dataDir, "config.yml.tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(defaultYAML); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	// Link fails if path appeared meanwhile; the winner's file stands.
	if err := os.Link(tmp.Name(), path); err != nil && !errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("install default config: %w", err)
	}
	log.Printf("[config] wrote default config to %s", path)
	return path, nil
}
