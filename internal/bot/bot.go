// Package bot is the Telegram front end: it turns commands, scheduled
// firings and explain button presses into quiz polls and replies.
package bot

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/quizgen"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Quizzer produces quizzes and explanations.
type Quizzer interface {
	Generate(ctx context.Context, level quiz.Level) (*quizgen.Result, error)
	Explain(ctx context.Context, rec quiz.Record) (string, error)
}

// Records resolves explain callbacks to stored quizzes.
type Records interface {
	ReadAt(i int) (quiz.Record, error)
}

// Scheduler manages a chat's daily triggers.
type Scheduler interface {
	Enable(chatID int64) error
	Disable(chatID int64) error
}

// Chats is the persisted set of chats with daily quizzes.
type Chats interface {
	Add(id int64) (bool, error)
	Remove(id int64) (bool, error)
}

// Deps are the services the bot delegates to.
type Deps struct {
	Quizzes   Quizzer
	Records   Records
	Scheduler Scheduler
	Chats     Chats
}

type Config struct {
	// Workers bounds concurrently handled updates.
	Workers int

	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int
}

type Bot struct {
	api      API
	deps     Deps
	cfg      Config
	explains singleflight.Group
	logger   *zap.Logger
}

// New creates a Bot. A nil logger discards log output.
func New(api API, deps Deps, cfg Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Bot{
		api:    api,
		deps:   deps,
		cfg:    cfg,
		logger: logger.Named("bot"),
	}
}

// Run long-polls for updates and dispatches them onto a bounded pool of
// workers until ctx is cancelled. It waits for in-flight handlers before
// returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)

	b.logger.Info("polling for updates", zap.Int("workers", b.cfg.Workers))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return g.Wait()
		case upd, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				b.HandleUpdate(ctx, upd)
				return nil
			})
		}
	}
}

// HandleUpdate processes a single update. Panics are recovered and logged.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update",
				zap.Int("update_id", upd.UpdateID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.IsCommand():
		b.handleCommand(ctx, upd.Message)
	}
}

// reply sends a plain text message, optionally as a reply.
func (b *Bot) reply(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, truncate(text, maxMessageLen))
	msg.ReplyToMessageID = replyTo
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
