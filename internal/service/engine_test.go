package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the named operations and counts writes.
type flakyStore struct {
	*MemorySessionStore
	fail   map[string]bool
	writes int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemorySessionStore: NewMemorySessionStore(), fail: map[string]bool{}}
}

func (s *flakyStore) err(op string) error {
	if s.fail[op] {
		return fmt.Errorf("%w: %s: connection refused", ErrStoreUnavailable, op)
	}
	return nil
}

func (s *flakyStore) SetQuestion(ctx context.Context, uid UserID, q, a string) error {
	if err := s.err("set"); err != nil {
		return err
	}
	s.writes++
	return s.MemorySessionStore.SetQuestion(ctx, uid, q, a)
}

func (s *flakyStore) CurrentAnswer(ctx context.Context, uid UserID) (string, bool, error) {
	if err := s.err("answer"); err != nil {
		return "", false, err
	}
	return s.MemorySessionStore.CurrentAnswer(ctx, uid)
}

func (s *flakyStore) ClearQuestion(ctx context.Context, uid UserID) error {
	if err := s.err("clear"); err != nil {
		return err
	}
	s.writes++
	return s.MemorySessionStore.ClearQuestion(ctx, uid)
}

func (s *flakyStore) IncrementScore(ctx context.Context, uid UserID) (int, error) {
	if err := s.err("incr"); err != nil {
		return 0, err
	}
	s.writes++
	return s.MemorySessionStore.IncrementScore(ctx, uid)
}

func (s *flakyStore) ScoreAnswer(ctx context.Context, uid UserID, answer string) (int, bool, error) {
	if err := s.err("incr"); err != nil {
		return 0, false, err
	}
	if err := s.err("clear"); err != nil {
		return 0, false, err
	}
	s.writes++
	return s.MemorySessionStore.ScoreAnswer(ctx, uid, answer)
}

func (s *flakyStore) Score(ctx context.Context, uid UserID) (int, error) {
	if err := s.err("score"); err != nil {
		return 0, err
	}
	return s.MemorySessionStore.Score(ctx, uid)
}

// sequenceRand returns the given indexes in order, then repeats the last one.
func sequenceRand(idx ...int) func(int) int {
	return func(n int) int {
		i := idx[0]
		if len(idx) > 1 {
			idx = idx[1:]
		}
		return i % n
	}
}

func newTestEngine(t *testing.T, picks ...int) (*Engine, *flakyStore) {
	t.Helper()
	bank, err := NewQuestionBank([]QuizQuestion{
		{Question: "Q1", Answer: "A1 (first)."},
		{Question: "Q2", Answer: "42"},
		{Question: "Q3", Answer: "Paris (capital of France)."},
	})
	require.NoError(t, err)
	if len(picks) > 0 {
		bank = bank.WithRand(sequenceRand(picks...))
	}
	store := newFlakyStore()
	return NewEngine(bank, store, EnglishTexts), store
}

func handle(t *testing.T, e *Engine, uid UserID, ev Event) Reply {
	t.Helper()
	r, err := e.Handle(context.Background(), uid, ev)
	require.NoError(t, err)
	if r.Next != StateIdle {
		derived, err := e.State(context.Background(), uid)
		require.NoError(t, err)
		assert.Equal(t, derived, r.Next, "reply state must match the store projection")
	}
	return r
}

func TestStartGreets(t *testing.T) {
	e, _ := newTestEngine(t)

	r := handle(t, e, "u1", Event{Kind: EventStart})
	assert.Equal(t, []string{EnglishTexts.Greeting}, r.Messages)
	assert.Equal(t, StateAwaitingAction, r.Next)
}

func TestStartKeepsLeftoverQuestion(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	handle(t, e, "u1", Event{Kind: EventCancel})

	r := handle(t, e, "u1", Event{Kind: EventStart})
	assert.Equal(t, StateAwaitingAnswer, r.Next)

	r = handle(t, e, "u1", Answer("42"))
	assert.Equal(t, []string{"Correct!"}, r.Messages)
}

func TestNewQuestionStoresNormalizedAnswer(t *testing.T) {
	e, store := newTestEngine(t, 2)
	ctx := context.Background()

	r := handle(t, e, "u1", Event{Kind: EventNewQuestion})
	assert.Equal(t, []string{"Q3"}, r.Messages)
	assert.Equal(t, StateAwaitingAnswer, r.Next)

	q, ok, err := store.CurrentQuestion(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q3", q)

	a, ok, err := store.CurrentAnswer(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "paris", a)
}

func TestCorrectAnswerScores(t *testing.T) {
	e, store := newTestEngine(t, 1)
	ctx := context.Background()

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	r := handle(t, e, "u1", Answer("the answer is 42"))
	assert.Equal(t, []string{"Correct!"}, r.Messages)
	assert.Equal(t, StateAwaitingAction, r.Next)

	score, err := store.Score(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, score)

	_, ok, err := store.CurrentQuestion(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	r = handle(t, e, "u1", Answer("42"))
	assert.Equal(t, []string{EnglishTexts.NoQuestion}, r.Messages, "a cleared question cannot be scored twice")
}

func TestWrongAnswerKeepsQuestion(t *testing.T) {
	e, store := newTestEngine(t, 1)
	ctx := context.Background()

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	writes := store.writes

	r := handle(t, e, "u1", Answer("wrong"))
	assert.Equal(t, []string{"Incorrect, try again"}, r.Messages)
	assert.Equal(t, StateAwaitingAnswer, r.Next)
	assert.Equal(t, writes, store.writes)

	score, err := store.Score(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	q, ok, err := store.CurrentQuestion(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Q2", q)
}

func TestAnswerWithoutQuestion(t *testing.T) {
	e, store := newTestEngine(t)

	r := handle(t, e, "u1", Answer("42"))
	assert.Equal(t, []string{"Press 'New question' first"}, r.Messages)
	assert.Equal(t, StateAwaitingAction, r.Next)
	assert.Zero(t, store.writes)
}

func TestEmptyAnswerIsTreatedAsNoQuestion(t *testing.T) {
	e, store := newTestEngine(t, 1)

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	r := handle(t, e, "u1", Answer("   "))
	assert.Equal(t, []string{EnglishTexts.NoQuestion}, r.Messages)
	assert.Equal(t, StateAwaitingAnswer, r.Next)

	_, ok, err := store.CurrentAnswer(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok, "an empty reply must not touch the active question")

	r = handle(t, e, "u1", Event{})
	assert.Equal(t, []string{EnglishTexts.NoQuestion}, r.Messages)
}

func TestGiveUpRevealsAndAsksNext(t *testing.T) {
	e, store := newTestEngine(t, 0, 1)
	ctx := context.Background()

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	r := handle(t, e, "u1", Event{Kind: EventGiveUp})
	require.Len(t, r.Messages, 2)
	assert.Equal(t, "Correct answer: a1", r.Messages[0])
	assert.Equal(t, "Q2", r.Messages[1])
	assert.Equal(t, StateAwaitingAnswer, r.Next)

	q, ok, err := store.CurrentQuestion(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q2", q)

	score, err := store.Score(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestGiveUpWithoutQuestion(t *testing.T) {
	e, store := newTestEngine(t)

	r := handle(t, e, "u1", Event{Kind: EventGiveUp})
	assert.Equal(t, []string{"No active question"}, r.Messages)
	assert.Equal(t, StateAwaitingAction, r.Next)
	assert.Zero(t, store.writes)
}

func TestScoreReportsAndKeepsState(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	r := handle(t, e, "u1", Event{Kind: EventScore})
	assert.Equal(t, []string{"Your score: 0"}, r.Messages)
	assert.Equal(t, StateAwaitingAction, r.Next)

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	handle(t, e, "u1", Answer("42"))
	handle(t, e, "u1", Event{Kind: EventNewQuestion})

	r = handle(t, e, "u1", Event{Kind: EventScore})
	assert.Equal(t, []string{"Your score: 1"}, r.Messages)
	assert.Equal(t, StateAwaitingAnswer, r.Next)
}

func TestCancelEndsConversation(t *testing.T) {
	e, _ := newTestEngine(t)

	r := handle(t, e, "u1", Event{Kind: EventCancel})
	assert.Equal(t, []string{EnglishTexts.Farewell}, r.Messages)
	assert.Equal(t, StateIdle, r.Next)
}

func TestUsersAreIndependent(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	r := handle(t, e, "u2", Answer("42"))
	assert.Equal(t, []string{EnglishTexts.NoQuestion}, r.Messages)
}

func TestStoreFailures(t *testing.T) {
	tests := []struct {
		name  string
		fail  string
		setup bool
		event Event
	}{
		{"new question", "set", false, Event{Kind: EventNewQuestion}},
		{"score", "score", false, Event{Kind: EventScore}},
		{"answer lookup", "answer", true, Answer("42")},
		{"increment", "incr", true, Answer("42")},
		{"clear", "clear", true, Answer("42")},
		{"give up", "set", true, Event{Kind: EventGiveUp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newTestEngine(t, 1, 2)
			ctx := context.Background()
			if tt.setup {
				handle(t, e, "u1", Event{Kind: EventNewQuestion})
			}
			store.fail[tt.fail] = true

			r, err := e.Handle(ctx, "u1", tt.event)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStoreUnavailable))
			assert.Empty(t, r.Messages)

			store.fail = map[string]bool{}
			if tt.setup {
				q, ok, err := store.CurrentQuestion(ctx, "u1")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "Q2", q, "a failed interaction must leave the question in place")
			}

			score, err := store.Score(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 0, score, "a failed interaction must not score")

			if tt.setup {
				r := handle(t, e, "u1", Answer("42"))
				assert.Equal(t, []string{"Correct!"}, r.Messages)
				score, err := store.Score(ctx, "u1")
				require.NoError(t, err)
				assert.Equal(t, 1, score, "the retried answer scores exactly once")
			}
		})
	}
}

func TestStaleAnswerDoesNotScore(t *testing.T) {
	e, store := newTestEngine(t, 1, 0)
	ctx := context.Background()

	handle(t, e, "u1", Event{Kind: EventNewQuestion})
	// Another handler gave up and moved the user to the next question.
	handle(t, e, "u1", Event{Kind: EventGiveUp})

	_, scored, err := store.ScoreAnswer(ctx, "u1", "42")
	require.NoError(t, err)
	assert.False(t, scored)

	score, err := store.Score(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, score)
	q, ok, err := store.CurrentQuestion(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q1", q)
}

func TestEventKindNames(t *testing.T) {
	for kind, name := range eventNames {
		got, err := ParseEventKind(name)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
		assert.Equal(t, name, kind.String())
	}

	_, err := ParseEventKind("dance")
	assert.ErrorIs(t, err, ErrUnknownEvent)
	assert.Equal(t, "awaiting_answer", StateAwaitingAnswer.String())
}
