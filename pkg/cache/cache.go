// Package cache stores rendered HTML in SQLite, keyed by the SHA-256 of the
// Markdown it was rendered from.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const DefaultTTL = 24 * time.Hour

type Manager struct {
	db  *sql.DB
	ttl time.Duration
}

// Entry is one cached render.
type Entry struct {
	Hash      string    `json:"hash" yaml:"hash"`
	HTML      string    `json:"html" yaml:"html"`
	Renderer  string    `json:"renderer" yaml:"renderer"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Info summarises the cache contents.
type Info struct {
	Path    string        `json:"path" yaml:"path"`
	Entries int           `json:"entries" yaml:"entries"`
	Fresh   int           `json:"fresh" yaml:"fresh"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
	Oldest  time.Time     `json:"oldest,omitempty" yaml:"oldest,omitempty"`
}

// Key returns the cache key for a Markdown source.
func Key(markdown string) string {
	sum := sha256.Sum256([]byte(markdown))
	return hex.EncodeToString(sum[:])
}

// ScopedKey returns the cache key for a Markdown source rendered by the
// renderer identified by scope, so renders from different renderers or
// endpoints never share an entry.
func ScopedKey(scope, markdown string) string {
	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write([]byte(markdown))
	return hex.EncodeToString(h.Sum(nil))
}

// NewManager opens (creating if needed) the cache database at dbPath. A
// non-positive ttl uses DefaultTTL.
func NewManager(dbPath string, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The watch loop and batch conversion share one handle; a single
	// connection keeps sqlite writes serialised.
	db.SetMaxOpenConns(1)

	cm := &Manager{db: db, ttl: ttl}
	if err := cm.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cm, nil
}

func (cm *Manager) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS renders (
			hash TEXT PRIMARY KEY,
			html TEXT NOT NULL,
			renderer TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_renders_updated_at ON renders(updated_at)`,
	}

	for _, query := range queries {
		if _, err := cm.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (cm *Manager) Close() error {
	return cm.db.Close()
}

func (cm *Manager) TTL() time.Duration {
	return cm.ttl
}

// Get returns the fresh entry stored under hash, or nil when there is none.
func (cm *Manager) Get(hash string) (*Entry, error) {
	query := fmt.Sprintf(`SELECT hash, html, renderer, updated_at
	          FROM renders
	          WHERE hash = ? AND datetime(updated_at) > datetime('now', '-%d seconds')`, int(cm.ttl.Seconds()))

	var entry Entry
	err := cm.db.QueryRow(query, hash).Scan(&entry.Hash, &entry.HTML, &entry.Renderer, &entry.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get render: %w", err)
	}

	return &entry, nil
}

func (cm *Manager) Put(hash, html, renderer string) error {
	query := `
		INSERT OR REPLACE INTO renders (hash, html, renderer, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`

	if _, err := cm.db.Exec(query, hash, html, renderer); err != nil {
		return fmt.Errorf("failed to save render: %w", err)
	}

	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (cm *Manager) Purge() (int64, error) {
	query := fmt.Sprintf(`DELETE FROM renders
	          WHERE datetime(updated_at) <= datetime('now', '-%d seconds')`, int(cm.ttl.Seconds()))

	res, err := cm.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge renders: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry and returns how many were removed.
func (cm *Manager) Clear() (int64, error) {
	res, err := cm.db.Exec("DELETE FROM renders")
	if err != nil {
		return 0, fmt.Errorf("failed to clear renders: %w", err)
	}
	return res.RowsAffected()
}

func (cm *Manager) Count() (int, error) {
	var count int
	if err := cm.db.QueryRow("SELECT COUNT(*) FROM renders").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query render count: %w", err)
	}
	return count, nil
}

func (cm *Manager) GetCacheInfo(path string) (*Info, error) {
	info := &Info{Path: path, TTL: cm.ttl}

	if err := cm.db.QueryRow("SELECT COUNT(*) FROM renders").Scan(&info.Entries); err != nil {
		return nil, fmt.Errorf("failed to query render count: %w", err)
	}

	fresh := fmt.Sprintf(`SELECT COUNT(*) FROM renders
	          WHERE datetime(updated_at) > datetime('now', '-%d seconds')`, int(cm.ttl.Seconds()))
	if err := cm.db.QueryRow(fresh).Scan(&info.Fresh); err != nil {
		return nil, fmt.Errorf("failed to query fresh renders: %w", err)
	}

	if info.Entries > 0 {
		var oldest string
		if err := cm.db.QueryRow("SELECT MIN(updated_at) FROM renders").Scan(&oldest); err != nil {
			return nil, fmt.Errorf("failed to query oldest render: %w", err)
		}
		if t, err := time.Parse(time.DateTime, oldest); err == nil {
			info.Oldest = t
		} else if t, err := time.Parse(time.RFC3339, oldest); err == nil {
			info.Oldest = t
		}
	}

	return info, nil
}

// touch backdates an entry; used by tests to simulate expiry.
func (cm *Manager) touch(hash string, at time.Time) error {
	_, err := cm.db.Exec("UPDATE renders SET updated_at = ? WHERE hash = ?", at.UTC().Format(time.DateTime), hash)
	return err
}
