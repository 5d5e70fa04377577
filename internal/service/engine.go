package service

import (
	"context"
	"fmt"
	"strings"
)

// State is the conversation position of a user. Outside of StateIdle it is
// always derived from the session store.
type State int

const (
	StateIdle State = iota
	StateAwaitingAction
	StateAwaitingAnswer
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAction:
		return "awaiting_action"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type EventKind int

const (
	EventStart EventKind = iota + 1
	EventNewQuestion
	EventScore
	EventAnswer
	EventGiveUp
	EventCancel
)

var eventNames = map[EventKind]string{
	EventStart:       "start",
	EventNewQuestion: "new_question",
	EventScore:       "score",
	EventAnswer:      "answer",
	EventGiveUp:      "give_up",
	EventCancel:      "cancel",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// ParseEventKind maps a wire name such as "give_up" to its kind.
func ParseEventKind(name string) (EventKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range eventNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Event is a platform-independent user action. Text is only used by EventAnswer.
type Event struct {
	Kind EventKind
	Text string
}

func Answer(text string) Event {
	return Event{Kind: EventAnswer, Text: text}
}

// Reply is what the transport should send back, in order.
type Reply struct {
	Messages []string
	Next     State
}

func reply(next State, messages ...string) Reply {
	return Reply{Messages: messages, Next: next}
}

// Engine runs the quiz conversation for any number of users. It holds no
// per-user state of its own; callers serialize events for the same user.
type Engine struct {
	bank  *QuestionBank
	store SessionStore
	texts Texts
}

func NewEngine(bank *QuestionBank, store SessionStore, texts Texts) *Engine {
	return &Engine{bank: bank, store: store, texts: texts}
}

func (e *Engine) Texts() Texts {
	return e.texts
}

// Handle applies one event for uid. Only store failures are returned as
// errors; wrong answers and out-of-order events are ordinary replies.
func (e *Engine) Handle(ctx context.Context, uid UserID, ev Event) (Reply, error) {
	switch ev.Kind {
	case EventStart:
		return e.start(ctx, uid)
	case EventNewQuestion:
		return e.newQuestion(ctx, uid)
	case EventScore:
		return e.score(ctx, uid)
	case EventAnswer:
		return e.submitAnswer(ctx, uid, ev.Text)
	case EventGiveUp:
		return e.giveUp(ctx, uid)
	case EventCancel:
		return reply(StateIdle, e.texts.Farewell), nil
	default:
		return e.noQuestion(ctx, uid)
	}
}

// State derives the user's position from the store.
func (e *Engine) State(ctx context.Context, uid UserID) (State, error) {
	_, ok, err := e.store.CurrentAnswer(ctx, uid)
	if err != nil {
		return StateIdle, err
	}
	if ok {
		return StateAwaitingAnswer, nil
	}
	return StateAwaitingAction, nil
}

// start greets the user. A question left over from an earlier conversation
// stays active.
func (e *Engine) start(ctx context.Context, uid UserID) (Reply, error) {
	state, err := e.State(ctx, uid)
	if err != nil {
		return Reply{}, fmt.Errorf("get state: %w", err)
	}
	return reply(state, e.texts.Greeting), nil
}

func (e *Engine) newQuestion(ctx context.Context, uid UserID) (Reply, error) {
	q := e.bank.PickRandom()
	if err := e.store.SetQuestion(ctx, uid, q.Question, NormalizeAnswer(q.Answer)); err != nil {
		return Reply{}, fmt.Errorf("set question: %w", err)
	}
	return reply(StateAwaitingAnswer, q.Question), nil
}

func (e *Engine) score(ctx context.Context, uid UserID) (Reply, error) {
	score, err := e.store.Score(ctx, uid)
	if err != nil {
		return Reply{}, fmt.Errorf("get score: %w", err)
	}
	state, err := e.State(ctx, uid)
	if err != nil {
		return Reply{}, fmt.Errorf("get state: %w", err)
	}
	return reply(state, e.texts.Score(score)), nil
}

func (e *Engine) submitAnswer(ctx context.Context, uid UserID, text string) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return e.noQuestion(ctx, uid)
	}

	answer, ok, err := e.store.CurrentAnswer(ctx, uid)
	if err != nil {
		return Reply{}, fmt.Errorf("get answer: %w", err)
	}
	if !ok {
		return reply(StateAwaitingAction, e.texts.NoQuestion), nil
	}

	if !AnswerMatches(text, answer) {
		return reply(StateAwaitingAnswer, e.texts.Incorrect), nil
	}

	// The point and the cleared question land in one write, so a question
	// can never be scored twice.
	_, scored, err := e.store.ScoreAnswer(ctx, uid, answer)
	if err != nil {
		return Reply{}, fmt.Errorf("score answer: %w", err)
	}
	if !scored {
		return e.noQuestion(ctx, uid)
	}
	return reply(StateAwaitingAction, e.texts.Correct), nil
}

// giveUp reveals the answer and poses the next question in one overwrite,
// so a failed write leaves the old question in place.
func (e *Engine) giveUp(ctx context.Context, uid UserID) (Reply, error) {
	answer, ok, err := e.store.CurrentAnswer(ctx, uid)
	if err != nil {
		return Reply{}, fmt.Errorf("get answer: %w", err)
	}
	if !ok {
		return reply(StateAwaitingAction, e.texts.NoActive), nil
	}

	next, err := e.newQuestion(ctx, uid)
	if err != nil {
		return Reply{}, err
	}
	return reply(StateAwaitingAnswer, append([]string{e.texts.Reveal(answer)}, next.Messages...)...), nil
}

func (e *Engine) noQuestion(ctx context.Context, uid UserID) (Reply, error) {
	state, err := e.State(ctx, uid)
	if err != nil {
		return Reply{}, fmt.Errorf("get state: %w", err)
	}
	return reply(state, e.texts.NoQuestion), nil
}
