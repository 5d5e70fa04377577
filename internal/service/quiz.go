package service

import "errors"

var (
	// ErrLoad - источник вопросов не читается или в нем нет годных пар
	ErrLoad = errors.New("load question bank")
	// ErrStoreUnavailable оборачивает любую ошибку хранилища сессий
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrUnknownEvent - транспорт не смог сопоставить ввод с событием
	ErrUnknownEvent = errors.New("unknown event")
)

// UserID идентифицирует участника викторины. Формат задает транспорт.
type UserID string

type QuizQuestion struct {
	Question string
	Answer   string
}
