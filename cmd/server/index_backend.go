package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"emberhall/internal/persistence/indexdb"
)

// openRuntimeIndex opens the sqlite read-model index, or returns nil when
// indexing is disabled. The index never affects sim determinism; everything
// it holds is rebuildable from the JSONL logs and save archives.
func openRuntimeIndex(gameDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("EMBERHALL_INDEX_BACKEND")))
	switch backend {
	case "", "sqlite":
		dbPath := filepath.Join(gameDir, "index", "game.sqlite")
		return indexdb.OpenSQLite(dbPath)
	case "none", "off", "disabled":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported EMBERHALL_INDEX_BACKEND: %s", backend)
	}
}
