package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

const (
	prefSettings     = "settings"
	prefEnabledModes = "enabled_modes"
)

// Store is the local settings and statistics database. It implements
// settings.Source and rewrite.StatsRecorder.
type Store struct {
	db       *sql.DB
	defaults settings.Settings
	now      func() time.Time

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// Open opens or creates the database at path. defaults supplies every
// setting the user has not saved.
func Open(path string, defaults settings.Settings) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Msg("Opened settings store")
	return &Store{
		db:       db,
		defaults: defaults.Normalize(),
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot returns defaults overlaid with saved preferences, modes and
// enabled modes.
func (s *Store) Snapshot(ctx context.Context) (settings.Settings, error) {
	out := s.defaults
	out.CustomModes = map[string]modes.Custom{}

	prefs, err := s.Preferences(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	out = prefs.Apply(out)

	customs, err := s.CustomModes(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	out.CustomModes = customs

	enabled, ok, err := s.enabledModes(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	if ok {
		out.EnabledModes = enabled
	}

	return out.Normalize(), nil
}

// Preferences returns the saved scalar settings.
func (s *Store) Preferences(ctx context.Context) (settings.Preferences, error) {
	var p settings.Preferences
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM preferences WHERE id = ?`, prefSettings).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to load preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return p, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return p, nil
}

// SavePreferences merges p into the saved preferences.
func (s *Store) SavePreferences(ctx context.Context, p settings.Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	current, err := s.Preferences(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(p.Merge(current))
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	return s.putPreference(ctx, s.db, prefSettings, string(body))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) putPreference(ctx context.Context, db execer, id, body string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO preferences (id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		id, body, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save preference %s: %w", id, err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CustomModes returns every saved custom mode keyed by mode key.
func (s *Store) CustomModes(ctx context.Context) (map[string]modes.Custom, error) {
	return s.customModes(ctx, s.db)
}

func (s *Store) customModes(ctx context.Context, db querier) (map[string]modes.Custom, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, name, prompt, created_at FROM custom_modes`)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom modes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]modes.Custom)
	for rows.Next() {
		var c modes.Custom
		var created int64
		if err := rows.Scan(&c.ModeKey, &c.DisplayName, &c.Template, &created); err != nil {
			return nil, fmt.Errorf("failed to scan custom mode: %w", err)
		}
		c.CreatedAt = time.UnixMilli(created).UTC()
		out[c.ModeKey] = c
	}
	return out, rows.Err()
}

// AddCustomMode validates and saves a new custom mode. It never replaces
// an existing one.
func (s *Store) AddCustomMode(ctx context.Context, name, prompt string) (modes.Custom, error) {
	var c modes.Custom
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.customModes(ctx, tx)
		if err != nil {
			return err
		}
		c, err = modes.NewCustom(name, prompt, existing)
		if err != nil {
			return err
		}
		return s.createCustom(ctx, tx, c)
	})
	if err != nil {
		return modes.Custom{}, err
	}
	log.Info().Str("key", c.ModeKey).Msg("Custom mode added")
	return c, nil
}

// createCustom inserts c, failing with modes.ErrModeExists when the key is
// already taken.
func (s *Store) createCustom(ctx context.Context, db execer, c modes.Custom) error {
	now := s.now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO custom_modes (key, name, prompt, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ModeKey, c.Name(), c.Template, now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", modes.ErrModeExists, c.ModeKey)
	}
	if err != nil {
		return fmt.Errorf("failed to save custom mode %s: %w", c.ModeKey, err)
	}
	return nil
}

// insertCustom upserts c. Only imports replace modes this way.
func (s *Store) insertCustom(ctx context.Context, db execer, c modes.Custom) error {
	created := c.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO custom_modes (key, name, prompt, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET name = excluded.name, prompt = excluded.prompt, updated_at = excluded.updated_at`,
		c.ModeKey, c.Name(), c.Template, created.UnixMilli(), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save custom mode %s: %w", c.ModeKey, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// UpdateCustomMode replaces the name and prompt of an existing mode. The
// key does not change.
func (s *Store) UpdateCustomMode(ctx context.Context, key, name, prompt string) (modes.Custom, error) {
	name, prompt = strings.TrimSpace(name), strings.TrimSpace(prompt)
	if name == "" || prompt == "" {
		return modes.Custom{}, modes.ErrNameRequired
	}
	res, err := s.db.ExecContext(ctx, `UPDATE custom_modes SET name = ?, prompt = ?, updated_at = ? WHERE key = ?`,
		name, prompt, s.now().UnixMilli(), key)
	if err != nil {
		return modes.Custom{}, fmt.Errorf("failed to update custom mode %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return modes.Custom{}, fmt.Errorf("%w: %s", modes.ErrModeNotFound, key)
	}
	customs, err := s.CustomModes(ctx)
	if err != nil {
		return modes.Custom{}, err
	}
	return customs[key], nil
}

// DeleteCustomMode removes a custom mode.
func (s *Store) DeleteCustomMode(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_modes WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete custom mode %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", modes.ErrModeNotFound, key)
	}
	return nil
}

// enabledModes reports the saved enabled built-in modes and whether the
// user ever saved a selection.
func (s *Store) enabledModes(ctx context.Context) ([]string, bool, error) {
	var marker string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM preferences WHERE id = ?`, prefEnabledModes).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load enabled modes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM enabled_modes ORDER BY position`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load enabled modes: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, false, fmt.Errorf("failed to scan enabled mode: %w", err)
		}
		out = append(out, k)
	}
	return out, true, rows.Err()
}

// SetEnabledModes replaces the enabled built-in modes. At least one mode
// must remain enabled.
func (s *Store) SetEnabledModes(ctx context.Context, keys []string) error {
	if err := settings.ValidateEnabledModes(keys); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.writeEnabled(ctx, tx, settings.EnabledInOrder(keys))
	})
}

func (s *Store) writeEnabled(ctx context.Context, tx *sql.Tx, keys []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM enabled_modes`); err != nil {
		return fmt.Errorf("failed to clear enabled modes: %w", err)
	}
	for i, k := range keys {
		if _, err := tx.ExecContext(ctx, `INSERT INTO enabled_modes (key, position) VALUES (?, ?)`, k, i); err != nil {
			return fmt.Errorf("failed to enable mode %s: %w", k, err)
		}
	}
	return s.putPreference(ctx, tx, prefEnabledModes, "true")
}

// EnableModes adds keys to the enabled set.
func (s *Store) EnableModes(ctx context.Context, keys ...string) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	return s.SetEnabledModes(ctx, append(snap.EnabledModes, keys...))
}

// DisableModes removes keys from the enabled set.
func (s *Store) DisableModes(ctx context.Context, keys ...string) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	remaining := make([]string, 0, len(snap.EnabledModes))
	for _, k := range snap.EnabledModes {
		drop := false
		for _, d := range keys {
			if k == d {
				drop = true
				break
			}
		}
		if !drop {
			remaining = append(remaining, k)
		}
	}
	return s.SetEnabledModes(ctx, remaining)
}

// ResetModes re-enables every built-in mode.
func (s *Store) ResetModes(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM enabled_modes`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM preferences WHERE id = ?`, prefEnabledModes)
		return err
	})
}

// Apply writes an imported settings document over the current settings.
func (s *Store) Apply(ctx context.Context, in settings.Imported) error {
	if err := in.Preferences.Validate(); err != nil {
		return err
	}
	if in.EnabledModes != nil {
		if err := settings.ValidateEnabledModes(in.EnabledModes); err != nil {
			return err
		}
	}
	current, err := s.Preferences(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(in.Preferences.Merge(current))
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.putPreference(ctx, tx, prefSettings, string(body)); err != nil {
			return err
		}
		if in.CustomModes != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM custom_modes`); err != nil {
				return fmt.Errorf("failed to clear custom modes: %w", err)
			}
			for _, c := range in.CustomModes {
				if err := s.insertCustom(ctx, tx, c); err != nil {
					return err
				}
			}
		}
		if in.EnabledModes != nil {
			return s.writeEnabled(ctx, tx, in.EnabledModes)
		}
		return nil
	})
}

// RecordUsage stores one usage event.
func (s *Store) RecordUsage(ctx context.Context, ev rewrite.UsageEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_events (id, mode_key, input_chars, output_chars, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.newID(), ev.ModeKey, ev.InputLen, ev.OutputLen, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Summary aggregates the recorded usage events.
func (s *Store) Summary(ctx context.Context) (settings.Stats, error) {
	stats := settings.Stats{ModeUsage: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT mode_key, COUNT(*), SUM(input_chars), SUM(output_chars), MAX(created_at)
		FROM usage_events GROUP BY mode_key`)
	if err != nil {
		return stats, fmt.Errorf("failed to summarise usage: %w", err)
	}
	defer rows.Close()

	var last int64
	for rows.Next() {
		var key string
		var count int
		var in, out, latest int64
		if err := rows.Scan(&key, &count, &in, &out, &latest); err != nil {
			return stats, fmt.Errorf("failed to scan usage: %w", err)
		}
		stats.ModeUsage[key] = count
		stats.TotalRewrites += count
		stats.CharactersProcessed += in
		stats.CharactersGenerated += out
		if latest > last {
			last = latest
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}
	if last > 0 {
		t := time.UnixMilli(last).UTC()
		stats.LastUsed = &t
	}
	return stats, nil
}

// ResetStats deletes every usage event.
func (s *Store) ResetStats(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM usage_events`); err != nil {
		return fmt.Errorf("failed to clear usage statistics: %w", err)
	}
	return nil
}

// ResetAll deletes every saved setting, custom mode and usage event.
func (s *Store) ResetAll(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"custom_modes", "enabled_modes", "preferences", "usage_events"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Store) newID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}
