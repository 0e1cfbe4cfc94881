package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abhisek/sensei/internal/cache"
	"github.com/abhisek/sensei/internal/quiz"
)

const explainPrefix = "explain|"

const (
	explainNotFoundText = "Sorry, I couldn't find that quiz anymore."
	explainFailText     = "Sorry, I couldn't fetch an explanation right now."
	explainUsageText    = "Please reply to a quiz message with /explain."
	explainAckText      = "Fetching explanation..."
	explainHeader       = "📘 Explanation:\n"
)

// parseExplainData extracts the store index from "explain|<index>".
func parseExplainData(data string) (int, bool) {
	rest, ok := strings.CutPrefix(data, explainPrefix)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	idx, ok := parseExplainData(cq.Data)

	ack := explainAckText
	if !ok {
		ack = explainNotFoundText
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, ack)); err != nil {
		b.logger.Warn("answer callback failed", zap.Error(err))
	}

	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	replyTo := cq.Message.MessageID

	if !ok {
		b.logger.Warn("unrecognised callback data", zap.String("data", cq.Data), zap.Int64("chat_id", chatID))
		b.reply(chatID, replyTo, explainNotFoundText)
		return
	}

	b.sendExplanation(chatID, replyTo, func() (string, error) {
		return b.explainIndex(ctx, idx)
	})
}

// handleExplainReply serves /explain sent as a reply to a quiz poll. Polls
// carrying an explain button are resolved through the store; others are
// explained from the poll itself.
func (b *Bot) handleExplainReply(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	target := msg.ReplyToMessage
	if target == nil || target.Poll == nil {
		b.reply(chatID, msg.MessageID, explainUsageText)
		return
	}

	if idx, ok := indexFromMarkup(target.ReplyMarkup); ok {
		b.sendExplanation(chatID, msg.MessageID, func() (string, error) {
			return b.explainIndex(ctx, idx)
		})
		return
	}

	rec := recordFromPoll(target.Poll)
	b.sendExplanation(chatID, msg.MessageID, func() (string, error) {
		return b.deps.Quizzes.Explain(ctx, rec)
	})
}

// explainIndex explains the stored quiz at idx. Concurrent requests for
// the same index share one provider call.
func (b *Bot) explainIndex(ctx context.Context, idx int) (string, error) {
	v, err, shared := b.explains.Do(strconv.Itoa(idx), func() (any, error) {
		rec, err := b.deps.Records.ReadAt(idx)
		if err != nil {
			return "", err
		}
		return b.deps.Quizzes.Explain(ctx, rec)
	})
	if shared {
		b.logger.Debug("shared explanation", zap.Int("index", idx))
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (b *Bot) sendExplanation(chatID int64, replyTo int, explain func() (string, error)) {
	text, err := explain()
	switch {
	case errors.Is(err, cache.ErrNotFound):
		b.logger.Warn("explain target not found", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, replyTo, explainNotFoundText)
	case err != nil:
		b.logger.Error("explanation failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, replyTo, explainFailText)
	default:
		b.reply(chatID, replyTo, explainHeader+text)
	}
}

func indexFromMarkup(m *tgbotapi.InlineKeyboardMarkup) (int, bool) {
	if m == nil {
		return 0, false
	}
	for _, row := range m.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData == nil {
				continue
			}
			if idx, ok := parseExplainData(*btn.CallbackData); ok {
				return idx, true
			}
		}
	}
	return 0, false
}

// recordFromPoll rebuilds what is known about a quiz from its poll. The
// correct answer is only reported for quiz-mode polls.
func recordFromPoll(p *tgbotapi.Poll) quiz.Record {
	rec := quiz.Record{
		Question:        strings.TrimSpace(p.Question),
		CorrectOptionID: -1,
		Explanation:     p.Explanation,
	}
	for _, o := range p.Options {
		rec.Options = append(rec.Options, o.Text)
	}
	if p.Type == "quiz" {
		rec.CorrectOptionID = p.CorrectOptionID
	}
	return rec
}
