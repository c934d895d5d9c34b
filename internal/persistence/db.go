// Package persistence stores the city style catalog and a log of scene
// generations in SQLite. Simulation state itself is never persisted.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/snow-globe/internal/world"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveStyle inserts or replaces one city profile.
func (db *DB) SaveStyle(p world.StyleProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal style %q: %w", p.Name, err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO styles (name, profile_json, updated_at) VALUES (?, ?, ?)",
		p.Name, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save style %q: %w", p.Name, err)
	}
	return nil
}

// SeedStyles writes profiles only when the catalog is empty, so local
// edits survive restarts. It reports how many profiles were written.
func (db *DB) SeedStyles(profiles map[string]world.StyleProfile) (int, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM styles"); err != nil {
		return 0, fmt.Errorf("count styles: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for name, p := range profiles {
		p.Name = name
		data, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("marshal style %q: %w", name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO styles (name, profile_json, updated_at) VALUES (?, ?, ?)",
			name, string(data), now,
		); err != nil {
			return 0, fmt.Errorf("insert style %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("style catalog seeded", "styles", len(profiles))
	return len(profiles), nil
}

// LoadStyles returns the stored catalog keyed by city name.
func (db *DB) LoadStyles() (map[string]world.StyleProfile, error) {
	var rows []struct {
		Name    string `db:"name"`
		Profile string `db:"profile_json"`
	}
	if err := db.conn.Select(&rows, "SELECT name, profile_json FROM styles ORDER BY name"); err != nil {
		return nil, fmt.Errorf("load styles: %w", err)
	}

	out := make(map[string]world.StyleProfile, len(rows))
	for _, r := range rows {
		var p world.StyleProfile
		if err := json.Unmarshal([]byte(r.Profile), &p); err != nil {
			return nil, fmt.Errorf("decode style %q: %w", r.Name, err)
		}
		p.Name = r.Name
		out[r.Name] = p
	}
	return out, nil
}

// Generation is one entry in the generation log.
type Generation struct {
	RunID       uuid.UUID     `json:"run_id"`
	City        string        `json:"city"`
	KnownStyle  bool          `json:"known_style"`
	Fingerprint uint64        `json:"fingerprint"`
	Counts      world.Counts  `json:"counts"`
	Took        time.Duration `json:"took"`
	At          time.Time     `json:"at"`
}

type generationRow struct {
	RunID       string `db:"run_id"`
	City        string `db:"city"`
	KnownStyle  bool   `db:"known_style"`
	Fingerprint string `db:"fingerprint"`
	Counts      string `db:"counts_json"`
	TookUS      int64  `db:"took_us"`
	At          int64  `db:"at"`
}

// RecordGeneration appends g to the log. Fingerprints are stored as hex
// text because SQLite integers are signed.
func (db *DB) RecordGeneration(g Generation) error {
	counts, err := json.Marshal(g.Counts)
	if err != nil {
		return fmt.Errorf("marshal counts: %w", err)
	}
	if g.At.IsZero() {
		g.At = time.Now()
	}
	_, err = db.conn.NamedExec(`INSERT INTO generations
		(run_id, city, known_style, fingerprint, counts_json, took_us, at)
		VALUES (:run_id, :city, :known_style, :fingerprint, :counts_json, :took_us, :at)`,
		generationRow{
			RunID:       g.RunID.String(),
			City:        g.City,
			KnownStyle:  g.KnownStyle,
			Fingerprint: strconv.FormatUint(g.Fingerprint, 16),
			Counts:      string(counts),
			TookUS:      g.Took.Microseconds(),
			At:          g.At.UnixMilli(),
		})
	if err != nil {
		return fmt.Errorf("record generation %q: %w", g.City, err)
	}
	return nil
}

// RecentGenerations returns up to limit log entries, newest first.
func (db *DB) RecentGenerations(limit int) ([]Generation, error) {
	var rows []generationRow
	err := db.conn.Select(&rows, `SELECT run_id, city, known_style, fingerprint, counts_json, took_us, at
		FROM generations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent generations: %w", err)
	}

	out := make([]Generation, 0, len(rows))
	for _, r := range rows {
		g := Generation{
			City:       r.City,
			KnownStyle: r.KnownStyle,
			Took:       time.Duration(r.TookUS) * time.Microsecond,
			At:         time.UnixMilli(r.At),
		}
		if g.RunID, err = uuid.Parse(r.RunID); err != nil {
			return nil, fmt.Errorf("run id %q: %w", r.RunID, err)
		}
		if g.Fingerprint, err = strconv.ParseUint(r.Fingerprint, 16, 64); err != nil {
			return nil, fmt.Errorf("fingerprint %q: %w", r.Fingerprint, err)
		}
		if err := json.Unmarshal([]byte(r.Counts), &g.Counts); err != nil {
			return nil, fmt.Errorf("decode counts: %w", err)
		}
		out = append(out, g)
	}
	return out, nil
}
