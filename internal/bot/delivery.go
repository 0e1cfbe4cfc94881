package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/quizgen"
)

// Telegram poll and message limits, in characters.
const (
	maxQuestionLen    = 300
	maxOptionLen      = 100
	maxExplanationLen = 200
	maxMessageLen     = 4096
)

const generateFailText = "Sorry, I couldn't generate a quiz right now."

// SendQuiz delivers a quiz to chatID. It is the scheduled firing path.
func (b *Bot) SendQuiz(ctx context.Context, chatID int64, level quiz.Level) error {
	return b.deliver(ctx, chatID, 0, level)
}

func (b *Bot) deliver(ctx context.Context, chatID int64, replyTo int, level quiz.Level) error {
	log := b.logger.With(
		zap.String("delivery_id", uuid.NewString()),
		zap.Int64("chat_id", chatID))

	res, err := b.deps.Quizzes.Generate(ctx, level)
	if err != nil {
		log.Error("no quiz to deliver", zap.Error(err))
		b.reply(chatID, replyTo, generateFailText)
		return err
	}

	poll := newQuizPoll(chatID, res)
	poll.ReplyToMessageID = replyTo
	if _, err := b.api.Send(poll); err != nil {
		log.Error("send quiz poll failed", zap.Int("index", res.Index), zap.Error(err))
		return err
	}

	log.Info("delivered quiz",
		zap.Int("index", res.Index),
		zap.Stringer("provenance", res.Provenance))
	return nil
}

func newQuizPoll(chatID int64, res *quizgen.Result) tgbotapi.SendPollConfig {
	rec := res.Record

	options := make([]string, len(rec.Options))
	for i, opt := range rec.Options {
		options[i] = truncate(opt, maxOptionLen)
	}

	poll := tgbotapi.NewPoll(chatID, truncate(rec.Question, maxQuestionLen), options...)
	poll.Type = "quiz"
	poll.IsAnonymous = true
	poll.CorrectOptionID = int64(rec.CorrectOptionID)
	poll.Explanation = truncate(rec.Explanation, maxExplanationLen)

	if res.Index >= 0 {
		poll.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📘 Explain", explainData(res.Index)),
			),
		)
	}
	return poll
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func explainData(idx int) string {
	return explainPrefix + strconv.Itoa(idx)
}
