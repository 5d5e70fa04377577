package telegram

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/PoluyanbIch/quizbot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Options struct {
	Workers  int
	SendRate float64
	Debug    bool
}

// Bot подключает движок викторины к long polling Telegram. Диалог в чате
// открыт от /start до /cancel в этом же чате, вне диалога отвечаем только
// на /start и запрос счета.
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  sender
	engine  *service.Engine
	texts   service.Texts
	limiter *rate.Limiter
	workers int
	active  sync.Map
}

func NewBot(token string, engine *service.Engine, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = opts.Debug

	b := newBot(api, engine, opts)
	b.api = api
	return b, nil
}

func newBot(s sender, engine *service.Engine, opts Options) *Bot {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	limit := rate.Inf
	if opts.SendRate > 0 {
		limit = rate.Limit(opts.SendRate)
	}
	return &Bot{
		sender:  s,
		engine:  engine,
		texts:   engine.Texts(),
		limiter: rate.NewLimiter(limit, 1),
		workers: workers,
	}
}

// Start получает обновления до отмены ctx. Сообщения одного пользователя
// всегда попадают к одному воркеру и обрабатываются по порядку, из какого
// бы чата они ни пришли.
func (b *Bot) Start(ctx context.Context) {
	log.Printf("Authorised on account: %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	queues := make([]chan *tgbotapi.Message, b.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan *tgbotapi.Message, 64)
		wg.Add(1)
		go func(q <-chan *tgbotapi.Message) {
			defer wg.Done()
			for msg := range q {
				b.handleMessage(ctx, msg)
			}
		}(queues[i])
	}

loop:
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			break loop
		case update, ok := <-updates:
			if !ok {
				break loop
			}
			if update.Message == nil {
				continue
			}
			queues[b.queueFor(update.Message)] <- update.Message
		}
	}

	for _, q := range queues {
		close(q)
	}
	wg.Wait()
	log.Println("Telegram polling stopped")
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	uid := userID(msg)
	key := conversationKey{chatID: chatID, uid: uid}
	ev := parseEvent(msg, b.texts)

	_, inConversation := b.active.Load(key)
	if !inConversation && ev.Kind != service.EventStart && ev.Kind != service.EventScore {
		b.sendMessage(ctx, chatID, b.texts.StartHint)
		return
	}

	reply, err := b.engine.Handle(ctx, uid, ev)
	if err != nil {
		log.Printf("Error handling %s for user %s: %v", ev.Kind, uid, err)
		b.sendMessage(ctx, chatID, b.texts.TryLater)
		return
	}

	switch {
	case reply.Next == service.StateIdle:
		b.active.Delete(key)
	case ev.Kind != service.EventScore:
		b.active.Store(key, struct{}{})
	}

	for _, text := range reply.Messages {
		b.sendMessage(ctx, chatID, text)
	}
}

// parseEvent сопоставляет команды и подписи кнопок событиям викторины.
// Остальной текст - попытка ответа, неизвестная команда - пустое событие.
func parseEvent(msg *tgbotapi.Message, texts service.Texts) service.Event {
	switch msg.Command() {
	case "start":
		return service.Event{Kind: service.EventStart}
	case "cancel":
		return service.Event{Kind: service.EventCancel}
	case "new", "question":
		return service.Event{Kind: service.EventNewQuestion}
	case "giveup":
		return service.Event{Kind: service.EventGiveUp}
	case "score":
		return service.Event{Kind: service.EventScore}
	case "":
	default:
		return service.Event{}
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.EqualFold(text, texts.NewQuestionBtn):
		return service.Event{Kind: service.EventNewQuestion}
	case strings.EqualFold(text, texts.GiveUpBtn):
		return service.Event{Kind: service.EventGiveUp}
	case strings.EqualFold(text, texts.ScoreBtn):
		return service.Event{Kind: service.EventScore}
	}
	return service.Answer(text)
}

// conversationKey - диалог конкретного пользователя в конкретном чате
type conversationKey struct {
	chatID int64
	uid    service.UserID
}

// senderID - автор сообщения, для анонимных постов - сам чат
func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func userID(msg *tgbotapi.Message) service.UserID {
	return service.UserID(strconv.FormatInt(senderID(msg), 10))
}

// queueFor выбирает воркера по автору, а не по чату: сессии хранятся по
// пользователю, а писать он может из разных чатов
func (b *Bot) queueFor(msg *tgbotapi.Message) int {
	return shard(senderID(msg), b.workers)
}

func shard(id int64, n int) int {
	return int(uint64(id) % uint64(n))
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := b.limiter.Wait(ctx); err != nil {
		log.Printf("Error waiting to send msg: %v", err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("Error sending msg: %v", err)
	}
}
