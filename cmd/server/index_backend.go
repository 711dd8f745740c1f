package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"motionstack.dev/internal/persistence/indexdb"
	"motionstack.dev/internal/sim/catalogs"
	"motionstack.dev/internal/sim/movegen"
	"motionstack.dev/internal/sim/tuning"
)

// openRuntimeIndex opens the sqlite index unless disabled. The index is a
// read model and never affects simulation determinism.
func openRuntimeIndex(worldDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("MS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "motion.sqlite"))
	default:
		return nil, fmt.Errorf("unknown MS_INDEX_BACKEND=%q", backend)
	}
}

// pathSource seeds the index with the catalog paths and serves them back
// from it. Without an index the catalogs are used directly.
func pathSource(idx *indexdb.SQLiteIndex, configDir string, cats *catalogs.Catalogs, tune tuning.Tuning, logger *log.Logger) movegen.PathSource {
	if idx == nil {
		return nil
	}
	if err := idx.UpsertCatalogs(configDir, cats, tune); err != nil {
		logger.Printf("index: upsert catalogs: %v", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	set, err := idx.LoadPaths(ctx)
	if err != nil {
		logger.Printf("index: load paths: %v", err)
		return nil
	}
	logger.Printf("index: %d paths loaded", set.Len())
	return set
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
