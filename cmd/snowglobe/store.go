package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/talgya/snow-globe/internal/persistence"
	"github.com/talgya/snow-globe/internal/world"
)

// openStore opens the SQLite store at dbPath, creating its directory.
// An empty path returns a nil store.
func openStore() (*persistence.DB, error) {
	if dbPath == "" {
		return nil, nil
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(dbPath)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", dbPath)
	return db, nil
}

// loadStyleTable seeds the store with the built-in catalog on first run and
// builds the table from what is stored. Without a store the built-in
// catalog is used directly.
func loadStyleTable(db *persistence.DB) (*world.StyleTable, error) {
	if db == nil {
		return world.DefaultStyleTable(), nil
	}
	if _, err := db.SeedStyles(world.DefaultStyles()); err != nil {
		return nil, fmt.Errorf("seed styles: %w", err)
	}
	profiles, err := db.LoadStyles()
	if err != nil {
		return nil, err
	}
	return world.NewStyleTable(profiles, world.DefaultStyle()), nil
}
