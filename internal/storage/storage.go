// Package storage selects a session store backend by name.
package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/PoluyanbIch/quizbot/internal/storage/bolt"
	"github.com/PoluyanbIch/quizbot/internal/storage/sqlite"
)

const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Open returns the session store for driver. The memory driver ignores path
// and loses every session on restart.
func Open(driver, path string) (service.SessionStore, error) {
	switch driver {
	case DriverMemory:
		log.Println("Using in-memory session store, scores are lost on restart")
		return service.NewMemorySessionStore(), nil
	case DriverBolt:
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		return bolt.Open(path)
	case DriverSQLite:
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		return sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unknown session store driver %q", driver)
	}
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return nil
}
