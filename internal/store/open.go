package store

import (
	"fmt"
	"strings"
)

// OpenBackend picks the backend for driver ("json" or "sqlite").
func OpenBackend(driver, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "json":
		return NewFileBackend(path), nil
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
