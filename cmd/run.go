package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/sensei/internal/bot"
	"github.com/abhisek/sensei/internal/cache"
	"github.com/abhisek/sensei/internal/chats"
	"github.com/abhisek/sensei/internal/config"
	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/quizgen"
	"github.com/abhisek/sensei/internal/schedule"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.ValidateBot(); err != nil {
			return err
		}

		logger, closeLog, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runBot(ctx, cfg, logger); err != nil {
			logger.Error("bot stopped with error", zap.Error(err))
			return err
		}
		logger.Info("bot stopped")
		return nil
	},
}

// runBot wires the quiz store, generator, registry and scheduler into the
// Telegram bot and blocks until ctx is done.
func runBot(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	quizzes, err := cache.Open(cfg.QuizCachePath())
	if err != nil {
		return fmt.Errorf("open quiz cache: %w", err)
	}
	defer quizzes.Close()

	events, closeEvents := openEvents(cfg, logger)
	defer closeEvents()

	provider, err := llm.NewProvider(ctx, cfg.LLM, events, logger)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	gen := quizgen.New(provider, quizzes, cfg.Quiz, logger)
	registry := chats.Open(cfg.ActiveChatsPath(), logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	slots, err := cfg.Slots()
	if err != nil {
		return err
	}

	if err := tgbotapi.SetLogger(zap.NewStdLog(logger.Named("telegram"))); err != nil {
		return err
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("connect to Telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug

	var b *bot.Bot
	sched := schedule.New(slots, func(ctx context.Context, chatID int64) {
		_ = b.SendQuiz(ctx, chatID, quiz.LevelNone)
	}, schedule.WithLocation(loc), schedule.WithLogger(logger))

	b = bot.New(api, bot.Deps{
		Quizzes:   gen,
		Records:   quizzes,
		Scheduler: sched,
		Chats:     registry,
	}, bot.Config{
		Workers:     cfg.Telegram.Workers,
		PollTimeout: cfg.Telegram.PollTimeout,
	}, logger)

	if err := sched.Rehydrate(registry.IDs()); err != nil {
		logger.Error("failed to restore some chat schedules", zap.Error(err))
	}
	sched.Start(ctx)
	defer func() { <-sched.Stop().Done() }()

	logger.Info("bot running",
		zap.String("bot", api.Self.UserName),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.ModelName()),
		zap.Int("active_chats", registry.Len()),
		zap.Int("quiz_cache", quizzes.Len()))

	return b.Run(ctx)
}
