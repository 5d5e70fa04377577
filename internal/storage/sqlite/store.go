// Package sqlite provides a SQLite-backed session store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PoluyanbIch/quizbot/internal/service"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store persists sessions in a single table. Several processes may share the
// file: every write is one statement.
type Store struct {
	sqlDB *sql.DB
}

var _ service.SessionStore = (*Store)(nil)

// Open opens the database at path and creates the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", service.ErrStoreUnavailable, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", service.ErrStoreUnavailable, err)
	}

	s := &Store{sqlDB: sqlDB}
	if err := s.initSchema(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// dsn builds a file: URI for path. The path is escaped so that '?', '#' and
// '%' in file names reach SQLite intact.
func dsn(path string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(filepath.Clean(path)),
		OmitHost: true,
		RawQuery: "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
	}
	return u.String()
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			user_id TEXT PRIMARY KEY,
			question TEXT,
			answer TEXT,
			score INTEGER NOT NULL DEFAULT 0
		);`,
	}

	for _, stmt := range statements {
		if _, err := s.sqlDB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SetQuestion(ctx context.Context, uid service.UserID, question, answer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (user_id, question, answer) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET question = excluded.question, answer = excluded.answer`,
		string(uid), question, answer,
	)
	if err != nil {
		return fmt.Errorf("%w: set question for %s: %w", service.ErrStoreUnavailable, uid, err)
	}
	return nil
}

func (s *Store) CurrentQuestion(ctx context.Context, uid service.UserID) (string, bool, error) {
	sess, err := s.get(ctx, uid)
	if err != nil || !sess.Active() {
		return "", false, err
	}
	return sess.Question, true, nil
}

func (s *Store) CurrentAnswer(ctx context.Context, uid service.UserID) (string, bool, error) {
	sess, err := s.get(ctx, uid)
	if err != nil || !sess.Active() {
		return "", false, err
	}
	return sess.Answer, true, nil
}

func (s *Store) ClearQuestion(ctx context.Context, uid service.UserID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions SET question = NULL, answer = NULL WHERE user_id = ?`,
		string(uid),
	)
	if err != nil {
		return fmt.Errorf("%w: clear question for %s: %w", service.ErrStoreUnavailable, uid, err)
	}
	return nil
}

func (s *Store) IncrementScore(ctx context.Context, uid service.UserID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var score int
	err := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO sessions (user_id, score) VALUES (?, 1)
		 ON CONFLICT(user_id) DO UPDATE SET score = score + 1
		 RETURNING score`,
		string(uid),
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("%w: increment score for %s: %w", service.ErrStoreUnavailable, uid, err)
	}
	return score, nil
}

func (s *Store) ScoreAnswer(ctx context.Context, uid service.UserID, answer string) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var score int
	err := s.sqlDB.QueryRowContext(ctx,
		`UPDATE sessions SET score = score + 1, question = NULL, answer = NULL
		 WHERE user_id = ? AND answer = ?
		 RETURNING score`,
		string(uid), answer,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		current, err := s.Score(ctx, uid)
		return current, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: score answer for %s: %w", service.ErrStoreUnavailable, uid, err)
	}
	return score, true, nil
}

func (s *Store) Score(ctx context.Context, uid service.UserID) (int, error) {
	sess, err := s.get(ctx, uid)
	if err != nil {
		return 0, err
	}
	return sess.Score, nil
}

func (s *Store) get(ctx context.Context, uid service.UserID) (service.Session, error) {
	if err := ctx.Err(); err != nil {
		return service.Session{}, err
	}

	var (
		question, answer sql.NullString
		sess             service.Session
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT question, answer, score FROM sessions WHERE user_id = ?`,
		string(uid),
	).Scan(&question, &answer, &sess.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Session{}, nil
	}
	if err != nil {
		return service.Session{}, fmt.Errorf("%w: get session %s: %w", service.ErrStoreUnavailable, uid, err)
	}
	sess.Question, sess.Answer = question.String, answer.String
	return sess, nil
}
