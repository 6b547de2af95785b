package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// RunRow is one finished run
type RunRow struct {
	ID        int64     `json:"id"`
	PeerID    string    `json:"pid"`
	Name      string    `json:"name"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason"`
	Coins     int       `json:"coins"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS levels (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		z REAL NOT NULL DEFAULT 0,
		rot REAL NOT NULL DEFAULT 0,
		last_seen INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		peer_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		coins INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		peer_id TEXT,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_players_last_seen ON players(last_seen);
	CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome, duration);
	CREATE INDEX IF NOT EXISTS idx_run_events_type ON run_events(event_type);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetSetting returns a stored setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("DB get setting %s: %v", key, err)
		}
		return ""
	}
	return v
}

// SetSetting stores a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// GetLevel returns a stored layout, or nil if none exists
func (db *DB) GetLevel(ctx context.Context, id string) (*Layout, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx, "SELECT data FROM levels WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var l Layout
	if err := msgpack.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode level %s: %w", id, err)
	}
	return &l, nil
}

// SaveLevel stores a layout under id
func (db *DB) SaveLevel(ctx context.Context, id string, l *Layout) error {
	data, err := msgpack.Marshal(l)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO levels (id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, data,
	)
	return err
}

// UpsertPose stores a peer's latest pose
func (db *DB) UpsertPose(p PeerPose) error {
	_, err := db.conn.Exec(
		`INSERT INTO players (id, name, x, y, z, rot, last_seen) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, x = excluded.x, y = excluded.y,
		 z = excluded.z, rot = excluded.rot, last_seen = excluded.last_seen`,
		p.ID, p.Name, p.X, p.Y, p.Z, p.Rot, p.LastSeen,
	)
	return err
}

// DeletePose removes a peer's pose
func (db *DB) DeletePose(id string) error {
	_, err := db.conn.Exec("DELETE FROM players WHERE id = ?", id)
	return err
}

// LoadPoses returns poses seen at or after since
func (db *DB) LoadPoses(since time.Time) ([]PeerPose, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, x, y, z, rot, last_seen FROM players WHERE last_seen >= ? ORDER BY id",
		since.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PeerPose
	for rows.Next() {
		var p PeerPose
		if err := rows.Scan(&p.ID, &p.Name, &p.X, &p.Y, &p.Z, &p.Rot, &p.LastSeen); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// DeleteStalePoses removes poses last seen before cutoff
func (db *DB) DeleteStalePoses(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec("DELETE FROM players WHERE last_seen < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordRun stores a finished run and returns its ID
func (db *DB) RecordRun(r RunRow) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO runs (peer_id, name, outcome, reason, coins, duration) VALUES (?, ?, ?, ?, ?, ?)",
		r.PeerID, r.Name, r.Outcome, r.Reason, r.Coins, r.Duration,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetRuns returns a peer's most recent runs
func (db *DB) GetRuns(peerID string, limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, peer_id, name, outcome, reason, coins, duration, created_at
		FROM runs WHERE peer_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		peerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.PeerID, &r.Name, &r.Outcome, &r.Reason, &r.Coins, &r.Duration, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetLeaderboard returns the fastest winning runs
func (db *DB) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(`
		SELECT name, duration, coins FROM runs
		WHERE outcome = ?
		ORDER BY duration ASC, coins DESC, id ASC
		LIMIT ?`,
		OutcomeWin.String(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Duration, &e.Coins); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}
