// Package bolt provides a BoltDB-backed session store.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PoluyanbIch/quizbot/internal/service"
	"go.etcd.io/bbolt"
)

const sessionBucket = "sessions"

// Store keeps one JSON record per user under user:<uid>. bbolt runs a single
// writer at a time, so read-modify-write inside Update is atomic.
type Store struct {
	db *bbolt.DB
}

var _ service.SessionStore = (*Store)(nil)

// Open opens a BoltDB file at path, creating it when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open storage db: %w", service.ErrStoreUnavailable, err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SetQuestion(ctx context.Context, uid service.UserID, question, answer string) error {
	return s.update(ctx, uid, func(sess *service.Session) bool {
		sess.Question, sess.Answer = question, answer
		return true
	})
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
	return s.update(ctx, uid, func(sess *service.Session) bool {
		if !sess.Active() {
			return false
		}
		sess.Question, sess.Answer = "", ""
		return true
	})
}

func (s *Store) IncrementScore(ctx context.Context, uid service.UserID) (int, error) {
	var score int
	err := s.update(ctx, uid, func(sess *service.Session) bool {
		sess.Score++
		score = sess.Score
		return true
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

func (s *Store) ScoreAnswer(ctx context.Context, uid service.UserID, answer string) (int, bool, error) {
	var (
		score  int
		scored bool
	)
	err := s.update(ctx, uid, func(sess *service.Session) bool {
		score = sess.Score
		if !sess.Active() || sess.Answer != answer {
			return false
		}
		sess.Score++
		sess.Question, sess.Answer = "", ""
		score, scored = sess.Score, true
		return true
	})
	if err != nil {
		return 0, false, err
	}
	return score, scored, nil
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

	var sess service.Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return decode(bucket.Get(sessionKey(uid)), &sess)
	})
	if err != nil {
		return service.Session{}, fmt.Errorf("%w: get session %s: %w", service.ErrStoreUnavailable, uid, err)
	}
	return sess, nil
}

// update loads the record, applies fn and writes it back when fn reports a change.
func (s *Store) update(ctx context.Context, uid service.UserID, fn func(*service.Session) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}

		key := sessionKey(uid)
		var sess service.Session
		if err := decode(bucket.Get(key), &sess); err != nil {
			return err
		}
		if !fn(&sess) {
			return nil
		}

		payload, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		return bucket.Put(key, payload)
	})
	if err != nil {
		return fmt.Errorf("%w: update session %s: %w", service.ErrStoreUnavailable, uid, err)
	}
	return nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(sessionBucket)); err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}
		return nil
	})
}

func decode(payload []byte, sess *service.Session) error {
	if payload == nil {
		return nil
	}
	if err := json.Unmarshal(payload, sess); err != nil {
		return fmt.Errorf("unmarshal session: %w", err)
	}
	return nil
}

func sessionKey(uid service.UserID) []byte {
	return []byte("user:" + string(uid))
}
