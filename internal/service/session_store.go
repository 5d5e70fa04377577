package service

import (
	"context"
	"sync"
)

// Session - сохраняемая запись пользователя. Question и Answer либо заданы
// оба, либо оба пустые.
type Session struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Score    int    `json:"score"`
}

// Active - есть ли активный вопрос
func (s Session) Active() bool {
	return s.Answer != ""
}

// SessionStore хранит сессии викторины по пользователям. Реализации
// оборачивают ошибки хранилища в ErrStoreUnavailable.
type SessionStore interface {
	// SetQuestion перезаписывает активный вопрос и нормализованный ответ
	SetQuestion(ctx context.Context, uid UserID, question, answer string) error
	CurrentQuestion(ctx context.Context, uid UserID) (string, bool, error)
	CurrentAnswer(ctx context.Context, uid UserID) (string, bool, error)
	// ClearQuestion снимает активный вопрос, без вопроса ничего не делает
	ClearQuestion(ctx context.Context, uid UserID) error
	// IncrementScore атомарно добавляет очко и возвращает новый счет
	IncrementScore(ctx context.Context, uid UserID) (int, error)
	// ScoreAnswer одной записью добавляет очко и снимает вопрос, но только
	// пока answer остается активным ответом. Иначе scored = false и ничего
	// не меняется.
	ScoreAnswer(ctx context.Context, uid UserID, answer string) (score int, scored bool, err error)
	// Score возвращает 0 для незнакомых пользователей
	Score(ctx context.Context, uid UserID) (int, error)
	Close() error
}

// MemorySessionStore хранит сессии в памяти (данные теряются при рестарте)
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[UserID]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[UserID]Session)}
}

func (ms *MemorySessionStore) SetQuestion(ctx context.Context, uid UserID, question, answer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s := ms.sessions[uid]
	s.Question, s.Answer = question, answer
	ms.sessions[uid] = s
	return nil
}

func (ms *MemorySessionStore) CurrentQuestion(ctx context.Context, uid UserID) (string, bool, error) {
	s, err := ms.get(ctx, uid)
	if err != nil || !s.Active() {
		return "", false, err
	}
	return s.Question, true, nil
}

func (ms *MemorySessionStore) CurrentAnswer(ctx context.Context, uid UserID) (string, bool, error) {
	s, err := ms.get(ctx, uid)
	if err != nil || !s.Active() {
		return "", false, err
	}
	return s.Answer, true, nil
}

func (ms *MemorySessionStore) ClearQuestion(ctx context.Context, uid UserID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[uid]
	if !ok {
		return nil
	}
	s.Question, s.Answer = "", ""
	ms.sessions[uid] = s
	return nil
}

func (ms *MemorySessionStore) IncrementScore(ctx context.Context, uid UserID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s := ms.sessions[uid]
	s.Score++
	ms.sessions[uid] = s
	return s.Score, nil
}

func (ms *MemorySessionStore) ScoreAnswer(ctx context.Context, uid UserID, answer string) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s := ms.sessions[uid]
	if !s.Active() || s.Answer != answer {
		return s.Score, false, nil
	}
	s.Score++
	s.Question, s.Answer = "", ""
	ms.sessions[uid] = s
	return s.Score, true, nil
}

func (ms *MemorySessionStore) Score(ctx context.Context, uid UserID) (int, error) {
	s, err := ms.get(ctx, uid)
	return s.Score, err
}

func (ms *MemorySessionStore) Close() error {
	return nil
}

func (ms *MemorySessionStore) get(ctx context.Context, uid UserID) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.sessions[uid], nil
}
