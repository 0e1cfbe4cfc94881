package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/schedule"
)

const (
	startedText    = "Bot started, will be sending quizzes anytime soon!"
	stoppedText    = "Sensei has been stopped for this group."
	notRunningText = "No active quiz job found for this chat."
	startFailText  = "Sorry, I couldn't schedule quizzes for this chat."

	helpText = "Sensei sends JLPT quizzes.\n\n" +
		"/quiz [N1-N5] - get a quiz now\n" +
		"/explain - reply to a quiz to get a detailed explanation\n" +
		"/sensei_start - send quizzes to this chat every day\n" +
		"/sensei_stop - stop the daily quizzes"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()

	b.logger.Debug("command", zap.String("command", cmd), zap.Int64("chat_id", chatID))

	switch cmd {
	case "quiz":
		level, _ := quiz.ParseLevel(msg.CommandArguments())
		_ = b.deliver(ctx, chatID, msg.MessageID, level)
	case "explain":
		b.handleExplainReply(ctx, msg)
	case "sensei_start":
		b.handleStart(chatID, msg.MessageID)
	case "sensei_stop":
		b.handleStop(chatID, msg.MessageID)
	case "help", "start":
		b.reply(chatID, msg.MessageID, helpText)
	}
}

func (b *Bot) handleStart(chatID int64, replyTo int) {
	added, err := b.deps.Chats.Add(chatID)
	if err != nil {
		b.logger.Error("persist active chat failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if err := b.deps.Scheduler.Enable(chatID); err != nil {
		b.logger.Error("schedule chat failed", zap.Int64("chat_id", chatID), zap.Error(err))
		if added {
			if _, rerr := b.deps.Chats.Remove(chatID); rerr != nil {
				b.logger.Error("persist active chat failed", zap.Int64("chat_id", chatID), zap.Error(rerr))
			}
		}
		b.reply(chatID, replyTo, startFailText)
		return
	}
	b.reply(chatID, replyTo, startedText)
}

func (b *Bot) handleStop(chatID int64, replyTo int) {
	err := b.deps.Scheduler.Disable(chatID)

	if _, rerr := b.deps.Chats.Remove(chatID); rerr != nil {
		b.logger.Error("persist active chat failed", zap.Int64("chat_id", chatID), zap.Error(rerr))
	}

	switch {
	case errors.Is(err, schedule.ErrNotScheduled):
		b.reply(chatID, replyTo, notRunningText)
	case err != nil:
		b.logger.Error("unschedule chat failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, replyTo, notRunningText)
	default:
		b.reply(chatID, replyTo, stoppedText)
	}
}
