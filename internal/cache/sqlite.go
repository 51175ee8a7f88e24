package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a response cache backed by a local SQLite database.
type SQLiteCache struct {
	db     *sql.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteCache opens (creating if needed) the cache database at path.
func NewSQLiteCache(path string, ttl time.Duration, logger *zap.Logger) (*SQLiteCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	c := &SQLiteCache{db: db, ttl: ttl, logger: logger, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_expires_at ON responses(expires_at);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate cache schema: %w", err)
	}
	return nil
}

// Get returns the cached response for key if present and unexpired.
func (c *SQLiteCache) Get(key string) (json.RawMessage, bool) {
	var value []byte
	var expiresAt int64
	err := c.db.QueryRow(
		"SELECT value, expires_at FROM responses WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if c.now().Unix() >= expiresAt {
		if _, err := c.db.Exec("DELETE FROM responses WHERE key = ?", key); err != nil {
			c.logger.Warn("cache eviction failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return json.RawMessage(value), true
}

// Set stores a response under key, replacing any previous entry.
func (c *SQLiteCache) Set(key string, value json.RawMessage) error {
	expiresAt := c.now().Add(c.ttl).Unix()
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO responses (key, value, expires_at) VALUES (?, ?, ?)",
		key, []byte(value), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// Purge removes all expired entries.
func (c *SQLiteCache) Purge() (int64, error) {
	res, err := c.db.Exec("DELETE FROM responses WHERE expires_at <= ?", c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
