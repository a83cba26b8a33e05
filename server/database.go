package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player account
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents lifetime combat stats
type StatsRow struct {
	PlayerID int64
	Kills    int
	Deaths   int
	Shots    int
	Hits     int
	Damage   float64
}

// ShotRow is one persisted shot telemetry record
type ShotRow struct {
	PlayerID     int64
	SessionID    string
	Hits         int
	Damage       float64
	Stopped      bool
	StopDistance float64
	At           time.Time
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
	Damage   float64 `json:"damage"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
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

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		shots INTEGER NOT NULL DEFAULT 0,
		hits INTEGER NOT NULL DEFAULT 0,
		damage REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS shots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id INTEGER NOT NULL REFERENCES players(id),
		session_id TEXT NOT NULL DEFAULT '',
		hits INTEGER NOT NULL DEFAULT 0,
		damage REAL NOT NULL DEFAULT 0,
		stopped INTEGER NOT NULL DEFAULT 0,
		stop_distance REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shots_player ON shots(player_id);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		slog.Error("db migration failed", "err", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreatePlayer creates a new account and its stats row
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec("INSERT INTO players (username, pass_hash) VALUES (?, ?)", username, passHash)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	_, err = db.conn.Exec("INSERT INTO stats (player_id) VALUES (?)", id)
	return id, err
}

// GetPlayerByUsername returns nil, nil when no such account exists
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow("SELECT id, username, pass_hash, created_at FROM players WHERE username = ?", username)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns nil, nil for unknown players
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow("SELECT player_id, kills, deaths, shots, hits, damage FROM stats WHERE player_id = ?", playerID)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Kills, &s.Deaths, &s.Shots, &s.Hits, &s.Damage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// AddKill credits one kill
func (db *DB) AddKill(playerID int64) error {
	_, err := db.conn.Exec("UPDATE stats SET kills = kills + 1 WHERE player_id = ?", playerID)
	return err
}

// AddDeath records one death
func (db *DB) AddDeath(playerID int64) error {
	_, err := db.conn.Exec("UPDATE stats SET deaths = deaths + 1 WHERE player_id = ?", playerID)
	return err
}

// RecordShots stores a batch of shots and folds them into stats in one
// transaction.
func (db *DB) RecordShots(batch []ShotRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ins, err := tx.Prepare(`INSERT INTO shots (player_id, session_id, hits, damage, stopped, stop_distance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()

	upd, err := tx.Prepare("UPDATE stats SET shots = shots + 1, hits = hits + ?, damage = damage + ? WHERE player_id = ?")
	if err != nil {
		return err
	}
	defer upd.Close()

	for _, s := range batch {
		stopped := 0
		if s.Stopped {
			stopped = 1
		}
		if _, err := ins.Exec(s.PlayerID, s.SessionID, s.Hits, s.Damage, stopped, s.StopDistance, s.At); err != nil {
			return err
		}
		if _, err := upd.Exec(s.Hits, s.Damage, s.PlayerID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountShots returns how many shots are stored for a player
func (db *DB) CountShots(playerID int64) (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM shots WHERE player_id = ?", playerID).Scan(&n)
	return n, err
}

// GetLeaderboard returns top players sorted by the given field
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	validCols := map[string]string{
		"kills":  "s.kills",
		"damage": "s.damage",
		"kd":     "CASE WHEN s.deaths > 0 THEN CAST(s.kills AS REAL)/s.deaths ELSE s.kills END",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "s.kills"
	}

	query := `SELECT p.username, s.kills, s.deaths, s.damage
		FROM stats s JOIN players p ON p.id = s.player_id
		ORDER BY ` + col + ` DESC, p.username ASC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Kills, &e.Deaths, &e.Damage); err != nil {
			return nil, err
		}
		e.Rank = len(result) + 1
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetSetting returns "" when the key is unset or unreadable
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
