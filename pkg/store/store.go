package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kengpt/kengpt/pkg/chat"
	"github.com/kengpt/kengpt/pkg/logger"
)

// Slice keys. Each slice is persisted independently so a corrupt entry in
// one does not block recovery of the others.
const (
	keyMemory   = "memory"
	keyProfile  = "profile"
	keyProfiles = "profiles"
)

// State is the hydration result: every slice is present, falling back to
// its documented default when the stored copy is missing or unreadable.
type State struct {
	Memory        []chat.Message
	ActiveProfile chat.Profile
	Profiles      chat.Profiles
}

// Store persists session state slices as JSON values in a local SQLite
// key-value table.
type Store struct {
	db *sql.DB
}

// Open creates/opens the state database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process client. One shared connection avoids writer lock
	// contention with SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init state db: %w", err)
		}
	}
	return nil
}

func (s *Store) put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO state(key, value, updated_at_ms) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at_ms=excluded.updated_at_ms`,
		key, string(data), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// get decodes the slice at key into out. It reports false when the slice
// is missing or unreadable; the caller substitutes the default.
func (s *Store) get(key string, out interface{}) bool {
	var value string
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		logger.WarnCF("store", "Failed to read state slice", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		logger.WarnCF("store", "Discarding corrupt state slice", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
		return false
	}
	return true
}

// SaveMemory persists the transcript. User-role requests are stripped of
// their history snapshot first: prior turns already live in memory, so
// re-embedding them per message would grow storage quadratically with
// conversation length.
func (s *Store) SaveMemory(memory []chat.Message) error {
	stored := make([]chat.Message, len(memory))
	for i, m := range memory {
		if m.IsRequest() {
			m = m.StripHistory()
		}
		stored[i] = m
	}
	return s.put(keyMemory, stored)
}

// SaveActiveProfile persists the active profile slice.
func (s *Store) SaveActiveProfile(profile chat.Profile) error {
	return s.put(keyProfile, profile)
}

// SaveProfiles persists the profile directory slice.
func (s *Store) SaveProfiles(profiles chat.Profiles) error {
	return s.put(keyProfiles, profiles)
}

// Load hydrates all three slices. It is best-effort and never fails:
// missing or unparseable slices fall back to the empty transcript, the
// built-in default profile, and the seeded profile directory.
func (s *Store) Load() State {
	state := State{
		Memory:        []chat.Message{},
		ActiveProfile: chat.DefaultProfile(),
		Profiles:      chat.SeedProfiles(),
	}

	var memory []chat.Message
	if s.get(keyMemory, &memory) && memory != nil {
		state.Memory = memory
	}

	var profile chat.Profile
	if s.get(keyProfile, &profile) && profile.Validate() == nil {
		state.ActiveProfile = profile
	}

	var profiles chat.Profiles
	if s.get(keyProfiles, &profiles) && len(profiles) > 0 {
		state.Profiles = profiles
	}

	return state
}
