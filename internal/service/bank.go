package service

import (
	"fmt"
	"log"
	"math/rand/v2"
)

// QuestionBank - неизменяемый набор вопросов, общий для всех пользователей
type QuestionBank struct {
	questions []QuizQuestion
	intn      func(n int) int
}

// NewQuestionBank собирает банк из пар вопрос-ответ. Пары с пустым
// нормализованным ответом отбрасываются: такой ответ засчитал бы что угодно.
func NewQuestionBank(questions []QuizQuestion) (*QuestionBank, error) {
	kept := make([]QuizQuestion, 0, len(questions))
	for _, q := range questions {
		if q.Question == "" || NormalizeAnswer(q.Answer) == "" {
			log.Printf("Skipping question with empty answer: %q", q.Question)
			continue
		}
		kept = append(kept, q)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no valid questions found", ErrLoad)
	}

	return &QuestionBank{questions: kept, intn: rand.IntN}, nil
}

// LoadBank загружает вопросы из файла или каталога и собирает банк
func LoadBank(path, encoding string) (*QuestionBank, error) {
	questions, err := LoadQuizQuestions(path, encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	bank, err := NewQuestionBank(questions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Printf("Loaded %d questions from %s", bank.Size(), path)
	return bank, nil
}

// WithRand подменяет источник случайности. intn должен быть потокобезопасным.
func (b *QuestionBank) WithRand(intn func(n int) int) *QuestionBank {
	return &QuestionBank{questions: b.questions, intn: intn}
}

// PickRandom возвращает равновероятно выбранный вопрос, повторы возможны
func (b *QuestionBank) PickRandom() QuizQuestion {
	return b.questions[b.intn(len(b.questions))]
}

func (b *QuestionBank) Size() int {
	return len(b.questions)
}
