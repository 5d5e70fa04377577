package service

import "fmt"

// Texts holds every message the engine and transports show to users.
type Texts struct {
	Greeting       string
	Farewell       string
	Correct        string
	Incorrect      string
	NoQuestion     string
	NoActive       string
	RevealFormat   string
	ScoreFormat    string
	TryLater       string
	StartHint      string
	NewQuestionBtn string
	GiveUpBtn      string
	ScoreBtn       string
}

var (
	EnglishTexts = Texts{
		Greeting:       "Hi! I'm a quiz bot!",
		Farewell:       "You left the quiz.",
		Correct:        "Correct!",
		Incorrect:      "Incorrect, try again",
		NoQuestion:     "Press 'New question' first",
		NoActive:       "No active question",
		RevealFormat:   "Correct answer: %s",
		ScoreFormat:    "Your score: %d",
		TryLater:       "Something went wrong, please try again later",
		StartHint:      "Send /start to begin the quiz",
		NewQuestionBtn: "New question",
		GiveUpBtn:      "Give up",
		ScoreBtn:       "My score",
	}

	RussianTexts = Texts{
		Greeting:       "Привет! Я бот для викторин!",
		Farewell:       "Вы вышли из викторины.",
		Correct:        "Правильно! 🎉",
		Incorrect:      "Неправильно. Попробуйте ещё раз.",
		NoQuestion:     "Сначала нажмите 'Новый вопрос'.",
		NoActive:       "Нет активного вопроса.",
		RevealFormat:   "Правильный ответ: %s",
		ScoreFormat:    "Ваш счёт: %d",
		TryLater:       "Что-то пошло не так, попробуйте позже.",
		StartHint:      "Отправьте /start, чтобы начать викторину.",
		NewQuestionBtn: "Новый вопрос",
		GiveUpBtn:      "Сдаться",
		ScoreBtn:       "Мой счёт",
	}
)

// TextsFor returns the message set for a locale ("en" or "ru").
func TextsFor(locale string) (Texts, error) {
	switch locale {
	case "en":
		return EnglishTexts, nil
	case "ru":
		return RussianTexts, nil
	default:
		return Texts{}, fmt.Errorf("unsupported locale %q", locale)
	}
}

func (t Texts) Reveal(answer string) string {
	return fmt.Sprintf(t.RevealFormat, answer)
}

func (t Texts) Score(score int) string {
	return fmt.Sprintf(t.ScoreFormat, score)
}
