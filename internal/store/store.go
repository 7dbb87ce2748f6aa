// Package store handles SQLite persistence for sessions and the
// active-session pointer.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/kubbtrack/internal/session"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data. It implements the manager's
// Storage and PointerStore collaborators.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			variant TEXT NOT NULL,
			target INTEGER NOT NULL,
			hits INTEGER NOT NULL,
			throws INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			completed INTEGER NOT NULL,
			paused INTEGER NOT NULL,
			game_round INTEGER NOT NULL DEFAULT 0,
			game_phase TEXT NOT NULL DEFAULT '',
			game_inkast_done INTEGER NOT NULL DEFAULT 0,
			game_field INTEGER NOT NULL DEFAULT 0,
			game_home INTEGER NOT NULL DEFAULT 0,
			game_away INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			modified_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			target_count INTEGER NOT NULL,
			completed INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS throws (
			id TEXT PRIMARY KEY,
			round_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			hit INTEGER NOT NULL,
			units INTEGER NOT NULL,
			tag TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS active_sessions (
			variant TEXT PRIMARY KEY,
			session_id TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_variant_created ON sessions(variant, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id, number);`,
		`CREATE INDEX IF NOT EXISTS idx_throws_round ON throws(round_id, idx);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create stores a new session with its rounds and throws.
func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	return s.writeTx(ctx, sess, false)
}

// Update rewrites a session and its rounds and throws.
func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	return s.writeTx(ctx, sess, true)
}

func (s *Store) writeTx(ctx context.Context, sess *session.Session, replace bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if replace {
		if err = s.deleteSessionTx(ctx, tx, sess.ID); err != nil {
			return err
		}
	}

	game := session.GameState{}
	if sess.Game != nil {
		game = *sess.Game
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, variant, target, hits, throws, started_at, ended_at, completed, paused,
			game_round, game_phase, game_inkast_done, game_field, game_home, game_away, created_at, modified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		string(sess.Variant),
		sess.Target,
		sess.Hits,
		sess.Throws,
		formatTime(sess.StartedAt),
		formatTime(sess.EndedAt),
		boolInt(sess.Completed),
		boolInt(sess.Paused),
		game.Round,
		string(game.Phase),
		boolInt(game.InkastDone),
		game.FieldRemaining,
		game.HomeLine,
		game.AwayLine,
		formatTime(sess.CreatedAt),
		formatTime(sess.ModifiedAt),
	)
	if err != nil {
		return err
	}

	roundStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rounds (id, session_id, number, target_count, completed) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := roundStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	throwStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO throws (id, round_id, idx, hit, units, tag, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := throwStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	for i := range sess.Rounds {
		r := &sess.Rounds[i]
		if _, err = roundStmt.ExecContext(ctx, r.ID, sess.ID, r.Number, r.TargetCount, boolInt(r.Completed)); err != nil {
			return err
		}
		for _, t := range r.Throws {
			if _, err = throwStmt.ExecContext(ctx, t.ID, r.ID, t.Index, boolInt(t.Hit), t.Units, string(t.Tag), formatTime(t.CreatedAt)); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// Read loads a session by id with round and throw ordering preserved.
func (s *Store) Read(ctx context.Context, id string) (*session.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, variant, target, hits, throws, started_at, ended_at, completed, paused,
			game_round, game_phase, game_inkast_done, game_field, game_home, game_away, created_at, modified_at
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, session.ErrNotFound)
		}
		return nil, err
	}
	if err := s.loadRounds(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session and its rounds and throws.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = s.deleteSessionTx(ctx, tx, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func (s *Store) deleteSessionTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM throws WHERE round_id IN (SELECT id FROM rounds WHERE session_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE session_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// ReadAll loads every session of a variant in creation order.
func (s *Store) ReadAll(ctx context.Context, variant session.Variant) ([]*session.Session, error) {
	return s.readMany(ctx,
		`SELECT id, variant, target, hits, throws, started_at, ended_at, completed, paused,
			game_round, game_phase, game_inkast_done, game_field, game_home, game_away, created_at, modified_at
		 FROM sessions WHERE variant = ? ORDER BY created_at ASC`, string(variant))
}

// ReadByDateRange loads a variant's sessions created in [from, to), in
// creation order.
func (s *Store) ReadByDateRange(ctx context.Context, variant session.Variant, from, to time.Time) ([]*session.Session, error) {
	return s.readMany(ctx,
		`SELECT id, variant, target, hits, throws, started_at, ended_at, completed, paused,
			game_round, game_phase, game_inkast_done, game_field, game_home, game_away, created_at, modified_at
		 FROM sessions WHERE variant = ? AND created_at >= ? AND created_at < ? ORDER BY created_at ASC`,
		string(variant), formatTime(from), formatTime(to))
}

// DeleteAll removes every session of a variant.
func (s *Store) DeleteAll(ctx context.Context, variant session.Variant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM throws WHERE round_id IN (
			SELECT r.id FROM rounds r JOIN sessions s ON s.id = r.session_id WHERE s.variant = ?)`,
		string(variant)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM rounds WHERE session_id IN (SELECT id FROM sessions WHERE variant = ?)`,
		string(variant)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE variant = ?`, string(variant)); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func (s *Store) readMany(ctx context.Context, query string, args ...any) ([]*session.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []*session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if err := s.loadRounds(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (s *Store) loadRounds(ctx context.Context, sess *session.Session) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, target_count, completed FROM rounds WHERE session_id = ? ORDER BY number ASC`, sess.ID)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var r session.Round
		var completed int
		if err := rows.Scan(&r.ID, &r.Number, &r.TargetCount, &completed); err != nil {
			return err
		}
		r.Completed = completed != 0
		sess.Rounds = append(sess.Rounds, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range sess.Rounds {
		if err := s.loadThrows(ctx, &sess.Rounds[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadThrows(ctx context.Context, r *session.Round) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, idx, hit, units, tag, created_at FROM throws WHERE round_id = ? ORDER BY idx ASC`, r.ID)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var t session.Throw
		var hit int
		var tag, createdAt string
		if err := rows.Scan(&t.ID, &t.Index, &hit, &t.Units, &tag, &createdAt); err != nil {
			return err
		}
		t.Hit = hit != 0
		t.Tag = session.Tag(tag)
		t.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return fmt.Errorf("throw %s created_at: %w", t.ID, session.ErrMalformedRecord)
		}
		r.Throws = append(r.Throws, t)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*session.Session, error) {
	var sess session.Session
	var variant, startedAt, endedAt, createdAt, modifiedAt, gamePhase string
	var completed, paused, inkastDone int
	var game session.GameState
	err := row.Scan(
		&sess.ID, &variant, &sess.Target, &sess.Hits, &sess.Throws,
		&startedAt, &endedAt, &completed, &paused,
		&game.Round, &gamePhase, &inkastDone, &game.FieldRemaining, &game.HomeLine, &game.AwayLine,
		&createdAt, &modifiedAt,
	)
	if err != nil {
		return nil, err
	}
	sess.Variant, err = session.ParseVariant(variant)
	if err != nil {
		return nil, fmt.Errorf("session %s variant: %w", sess.ID, session.ErrMalformedRecord)
	}
	sess.Completed = completed != 0
	sess.Paused = paused != 0
	if sess.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("session %s started_at: %w", sess.ID, session.ErrMalformedRecord)
	}
	if sess.EndedAt, err = parseTime(endedAt); err != nil {
		return nil, fmt.Errorf("session %s ended_at: %w", sess.ID, session.ErrMalformedRecord)
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("session %s created_at: %w", sess.ID, session.ErrMalformedRecord)
	}
	if sess.ModifiedAt, err = parseTime(modifiedAt); err != nil {
		return nil, fmt.Errorf("session %s modified_at: %w", sess.ID, session.ErrMalformedRecord)
	}
	if sess.Variant == session.VariantGame {
		game.InkastDone = inkastDone != 0
		game.Phase = session.Phase(gamePhase)
		sess.Game = &game
	}
	return &sess, nil
}

// ActiveID returns the active session id for a variant, or "" when none is
// recorded.
func (s *Store) ActiveID(ctx context.Context, variant session.Variant) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM active_sessions WHERE variant = ?`, string(variant)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetActiveID records the active session id for a variant.
func (s *Store) SetActiveID(ctx context.Context, variant session.Variant, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO active_sessions (variant, session_id) VALUES (?, ?)
		 ON CONFLICT(variant) DO UPDATE SET session_id = excluded.session_id`,
		string(variant), id)
	return err
}

// ClearActiveID removes the active session pointer for a variant.
func (s *Store) ClearActiveID(ctx context.Context, variant session.Variant) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM active_sessions WHERE variant = ?`, string(variant))
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout is a fixed-width UTC form of RFC 3339 so that lexicographic
// comparison on the stored text matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
