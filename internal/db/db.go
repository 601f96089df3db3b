// Package db provides the SQLite database wrapper and model types for decisiond.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps *sql.DB and provides migration support.
type DB struct {
	*sql.DB
}

// New opens a SQLite connection with WAL mode and foreign keys enabled.
// Driver name is "sqlite" (modernc.org/sqlite, not mattn/go-sqlite3).
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_journal=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("db.New: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("db.New: ping: %w", err)
	}
	// Limit to 1 writer at a time to avoid SQLITE_BUSY in WAL mode.
	sqlDB.SetMaxOpenConns(1)
	return &DB{sqlDB}, nil
}

// Migrate runs all CREATE TABLE IF NOT EXISTS migrations exactly once per schema version.
func (d *DB) Migrate() error {
	// Ensure the settings table exists first (holds schema_version).
	if _, err := d.Exec(ddlSettings); err != nil {
		return fmt.Errorf("db.Migrate: settings table: %w", err)
	}

	// Seed user-facing default settings on every startup.
	// INSERT OR IGNORE is idempotent — existing values are never overwritten.
	defaults := []struct{ k, v string }{
		{"telegram_token", ""},
		{"telegram_chat_id", ""},
		{"default_provider", ""},
		{"default_max_depth", "2"},
		{"default_breadth", "3"},
		{"retention_days", "30"},
		{"session_expiry_hours", "24"},
		{"brute_force_max_attempts", "5"},
		{"brute_force_block_minutes", "15"},
	}
	for _, s := range defaults {
		if _, err := d.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, s.k, s.v); err != nil {
			return fmt.Errorf("db.Migrate: seed setting %q: %w", s.k, err)
		}
	}

	// Read current schema version.
	var version int
	row := d.QueryRow(`SELECT value FROM settings WHERE key='schema_version' LIMIT 1`)
	_ = row.Scan(&version) // Ignore scan error — row may not exist yet (version=0).

	if version >= schemaVersion {
		return nil
	}

	tables := []string{
		ddlUsers,
		ddlSessions,
		ddlLoginAttempts,
		ddlAnalyses,
		ddlSchedules,
		ddlLogs,
		ddlWebhooks,
		ddlTokenUsage,
		ddlTokenBudgets,
	}

	for _, ddl := range tables {
		if _, err := d.Exec(ddl); err != nil {
			return fmt.Errorf("db.Migrate: %w", err)
		}
	}

	// Upsert schema version.
	_, err := d.Exec(`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, schemaVersion)
	if err != nil {
		return fmt.Errorf("db.Migrate: schema_version upsert: %w", err)
	}
	return nil
}

const schemaVersion = 1

// ── Model Types ──────────────────────────────────────────────────────────────

// User represents an admin user.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents an authenticated session.
type Session struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginAttempt tracks login tries per IP for brute-force protection.
type LoginAttempt struct {
	ID        int       `json:"id"`
	IP        string    `json:"ip"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// Analysis is one queued decision tree run.
type Analysis struct {
	ID            int           `json:"id"`
	Problem       string        `json:"problem"`
	Provider      string        `json:"provider"`
	Model         string        `json:"model"`
	MaxDepth      int           `json:"max_depth"`
	Breadth       int           `json:"breadth"`
	Status        string        `json:"status"`
	Tree          string        `json:"tree,omitempty"`
	Progress      int           `json:"progress"`
	CurrentBranch string        `json:"current_branch,omitempty"`
	InputTokens   int           `json:"input_tokens"`
	OutputTokens  int           `json:"output_tokens"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	ScheduleID    sql.NullInt64 `json:"schedule_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Schedule defines a cron-triggered analysis.
type Schedule struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	CronExpr  string       `json:"cron_expr"`
	Problem   string       `json:"problem"`
	Provider  string       `json:"provider"`
	MaxDepth  int          `json:"max_depth"`
	Breadth   int          `json:"breadth"`
	Enabled   bool         `json:"enabled"`
	NextRun   sql.NullTime `json:"next_run,omitempty"`
	LastRun   sql.NullTime `json:"last_run,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Log is a structured log line.
type Log struct {
	ID         int           `json:"id"`
	AnalysisID sql.NullInt64 `json:"analysis_id,omitempty"`
	Level      string        `json:"level"`
	Message    string        `json:"message"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Webhook defines an outbound webhook subscription.
type Webhook struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	URL        string       `json:"url"`
	Events     string       `json:"events"`
	Secret     string       `json:"-"`
	Enabled    bool         `json:"enabled"`
	LastStatus int          `json:"last_status"`
	LastFired  sql.NullTime `json:"last_fired,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// TokenUsage records token consumption per analysis run.
type TokenUsage struct {
	ID           int           `json:"id"`
	AnalysisID   sql.NullInt64 `json:"analysis_id,omitempty"`
	Provider     string        `json:"provider"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Date         string        `json:"date"`
	CreatedAt    time.Time     `json:"created_at"`
}

// TokenBudget defines per-provider daily token limits.
type TokenBudget struct {
	ID            int       `json:"id"`
	Provider      string    `json:"provider"`
	DailyLimit    int       `json:"daily_limit"`
	YellowPct     int       `json:"yellow_pct"`
	OrangePct     int       `json:"orange_pct"`
	RedPct        int       `json:"red_pct"`
	AlertTelegram bool      `json:"alert_telegram"`
	CreatedAt     time.Time `json:"created_at"`
}

// ── DDL Statements ───────────────────────────────────────────────────────────

const ddlSettings = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);`

const ddlUsers = `CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlSessions = `CREATE TABLE IF NOT EXISTS sessions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token      TEXT    NOT NULL UNIQUE,
	expires_at DATETIME NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlLoginAttempts = `CREATE TABLE IF NOT EXISTS login_attempts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ip         TEXT    NOT NULL,
	success    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlAnalyses = `CREATE TABLE IF NOT EXISTS analyses (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	problem        TEXT    NOT NULL,
	provider       TEXT    NOT NULL DEFAULT '',
	model          TEXT    NOT NULL DEFAULT '',
	max_depth      INTEGER NOT NULL DEFAULT 2,
	breadth        INTEGER NOT NULL DEFAULT 3,
	status         TEXT    NOT NULL DEFAULT 'pending',
	tree           TEXT    NOT NULL DEFAULT '',
	progress       INTEGER NOT NULL DEFAULT 0,
	current_branch TEXT    NOT NULL DEFAULT '',
	input_tokens   INTEGER NOT NULL DEFAULT 0,
	output_tokens  INTEGER NOT NULL DEFAULT 0,
	error_message  TEXT    NOT NULL DEFAULT '',
	schedule_id    INTEGER REFERENCES schedules(id) ON DELETE SET NULL,
	created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlSchedules = `CREATE TABLE IF NOT EXISTS schedules (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	cron_expr  TEXT    NOT NULL,
	problem    TEXT    NOT NULL,
	provider   TEXT    NOT NULL DEFAULT '',
	max_depth  INTEGER NOT NULL DEFAULT 2,
	breadth    INTEGER NOT NULL DEFAULT 3,
	enabled    INTEGER NOT NULL DEFAULT 1,
	next_run   DATETIME,
	last_run   DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlLogs = `CREATE TABLE IF NOT EXISTS logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id INTEGER REFERENCES analyses(id) ON DELETE SET NULL,
	level       TEXT    NOT NULL DEFAULT 'info',
	message     TEXT    NOT NULL,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlWebhooks = `CREATE TABLE IF NOT EXISTS webhooks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT    NOT NULL,
	url         TEXT    NOT NULL,
	events      TEXT    NOT NULL DEFAULT '',
	secret      TEXT    NOT NULL DEFAULT '',
	enabled     INTEGER NOT NULL DEFAULT 1,
	last_status INTEGER NOT NULL DEFAULT 0,
	last_fired  DATETIME,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlTokenUsage = `CREATE TABLE IF NOT EXISTS token_usage (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id   INTEGER REFERENCES analyses(id) ON DELETE SET NULL,
	provider      TEXT    NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	date          TEXT    NOT NULL,
	created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const ddlTokenBudgets = `CREATE TABLE IF NOT EXISTS token_budgets (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	provider       TEXT    NOT NULL UNIQUE,
	daily_limit    INTEGER NOT NULL DEFAULT 1000000,
	yellow_pct     INTEGER NOT NULL DEFAULT 60,
	orange_pct     INTEGER NOT NULL DEFAULT 80,
	red_pct        INTEGER NOT NULL DEFAULT 90,
	alert_telegram INTEGER NOT NULL DEFAULT 1,
	created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// ── Helpers ───────────────────────────────────────────────────────────────────

// WriteLog inserts a log line into the logs table.
func (d *DB) WriteLog(analysisID *int, level, message string) {
	var aid sql.NullInt64
	if analysisID != nil {
		aid = sql.NullInt64{Int64: int64(*analysisID), Valid: true}
	}
	_, _ = d.Exec(
		`INSERT INTO logs (analysis_id, level, message) VALUES (?,?,?)`,
		aid, level, message,
	)
}

// GetSetting retrieves a settings value by key, returning fallback if not found.
func (d *DB) GetSetting(key, fallback string) string {
	var v string
	if err := d.QueryRow(`SELECT value FROM settings WHERE key=?`, key).Scan(&v); err != nil {
		return fallback
	}
	return v
}

// SetSetting upserts a settings key-value pair.
func (d *DB) SetSetting(key, value string) error {
	_, err := d.Exec(
		`INSERT INTO settings (key, value) VALUES (?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("db.SetSetting: %w", err)
	}
	return nil
}
