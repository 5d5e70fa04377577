// Package servicetest holds the behavior every SessionStore backend must share.
package servicetest

import (
	"context"
	"sync"
	"testing"

	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreTests exercises a backend. open must return a fresh, empty store.
func RunSessionStoreTests(t *testing.T, open func(t *testing.T) service.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		s := open(t)

		score, err := s.Score(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, 0, score)

		_, ok, err := s.CurrentQuestion(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.CurrentAnswer(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.ClearQuestion(ctx, "nobody"))
	})

	t.Run("set and overwrite question", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.SetQuestion(ctx, "u1", "Q1", "a1"))
		require.NoError(t, s.SetQuestion(ctx, "u1", "Q2", "a2"))

		q, ok, err := s.CurrentQuestion(ctx, "u1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Q2", q)

		a, ok, err := s.CurrentAnswer(ctx, "u1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a2", a)

		_, ok, err = s.CurrentAnswer(ctx, "u2")
		require.NoError(t, err)
		assert.False(t, ok, "sessions must not leak between users")
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		s := open(t)

		require.NoError(t, s.SetQuestion(ctx, "u1", "Q", "a"))
		_, err := s.IncrementScore(ctx, "u1")
		require.NoError(t, err)

		require.NoError(t, s.ClearQuestion(ctx, "u1"))
		require.NoError(t, s.ClearQuestion(ctx, "u1"))

		_, ok, err := s.CurrentQuestion(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = s.CurrentAnswer(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)

		score, err := s.Score(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, score, "clearing must keep the score")
	})

	t.Run("increment returns new score", func(t *testing.T) {
		s := open(t)

		for want := 1; want <= 3; want++ {
			got, err := s.IncrementScore(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		_, ok, err := s.CurrentQuestion(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok, "incrementing must not create a question")
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		s := open(t)
		const workers, perWorker = 20, 5

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					_, err := s.IncrementScore(ctx, "shared")
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		score, err := s.Score(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, workers*perWorker, score)
	})

	t.Run("score answer clears and scores once", func(t *testing.T) {
		s := open(t)

		_, scored, err := s.ScoreAnswer(ctx, "u1", "a")
		require.NoError(t, err)
		assert.False(t, scored, "unknown users have nothing to score")

		require.NoError(t, s.SetQuestion(ctx, "u1", "Q", "a"))

		score, scored, err := s.ScoreAnswer(ctx, "u1", "other")
		require.NoError(t, err)
		assert.False(t, scored, "a replaced answer must not score")
		assert.Equal(t, 0, score)

		score, scored, err = s.ScoreAnswer(ctx, "u1", "a")
		require.NoError(t, err)
		assert.True(t, scored)
		assert.Equal(t, 1, score)

		_, ok, err := s.CurrentAnswer(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)

		score, scored, err = s.ScoreAnswer(ctx, "u1", "a")
		require.NoError(t, err)
		assert.False(t, scored)
		assert.Equal(t, 1, score)
	})

	t.Run("concurrent answers score one question once", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SetQuestion(ctx, "u1", "Q", "a"))

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, scored, err := s.ScoreAnswer(ctx, "u1", "a")
				assert.NoError(t, err)
				if scored {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		score, err := s.Score(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, score)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, s.SetQuestion(cctx, "u1", "Q", "a"), context.Canceled)
		_, err := s.IncrementScore(cctx, "u1")
		assert.ErrorIs(t, err, context.Canceled)

		score, err := s.Score(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0, score)
	})
}
