package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/sensei/internal/cache"
	"github.com/abhisek/sensei/internal/config"
	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/quizgen"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate one quiz and print it",
	Long: "Generate one quiz the same way the bot does (recent questions as a hint, cache\n" +
		"fallback on failure), append it to the quiz cache and print it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := levelFlag(cmd)
		if err != nil {
			return err
		}
		explain, _ := cmd.Flags().GetBool("explain")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx := cmd.Context()
		gen, closeGen, err := newGenerator(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeGen()

		res, err := gen.Generate(ctx, level)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Record)
		}

		printRecord(out, res.Index, res.Record)
		fmt.Fprintf(out, "\nSource:    %s\n", res.Provenance)

		if explain {
			text, err := gen.Explain(ctx, res.Record)
			if err != nil {
				return fmt.Errorf("explain: %w", err)
			}
			fmt.Fprintf(out, "\n📘 Explanation:\n%s\n", text)
		}
		return nil
	},
}

// newGenerator opens the quiz cache and event log and builds a generator
// on the configured provider.
func newGenerator(ctx context.Context, cfg config.Config, logger *zap.Logger) (*quizgen.Generator, func(), error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, nil, err
	}

	quizzes, err := cache.Open(cfg.QuizCachePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open quiz cache: %w", err)
	}
	events, closeEvents := openEvents(cfg, logger)

	provider, err := llm.NewProvider(ctx, cfg.LLM, events, logger)
	if err != nil {
		closeEvents()
		quizzes.Close()
		return nil, nil, fmt.Errorf("create LLM provider: %w", err)
	}

	return quizgen.New(provider, quizzes, cfg.Quiz, logger), func() {
		closeEvents()
		quizzes.Close()
	}, nil
}

func levelFlag(cmd *cobra.Command) (quiz.Level, error) {
	s, _ := cmd.Flags().GetString("level")
	if s == "" {
		return quiz.LevelNone, nil
	}
	level, ok := quiz.ParseLevel(s)
	if !ok {
		return quiz.LevelNone, fmt.Errorf("invalid level %q (want N1..N5)", s)
	}
	return level, nil
}

func printRecord(w io.Writer, index int, rec quiz.Record) {
	fmt.Fprintf(w, "Index:     %d\n", index)
	fmt.Fprintf(w, "Level:     %s\n", quiz.LevelOf(rec.Question))
	fmt.Fprintf(w, "Question:  %s\n\n", rec.Question)
	for i, opt := range rec.Options {
		mark := " "
		if i == rec.CorrectOptionID {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %s) %s\n", mark, quiz.Label(i), opt)
	}
	if rec.Explanation != "" {
		fmt.Fprintf(w, "\n%s\n", rec.Explanation)
	}
}

func init() {
	quizCmd.Flags().StringP("level", "l", "", "JLPT level N1..N5 (default: any)")
	quizCmd.Flags().BoolP("explain", "e", false, "Also ask for a detailed explanation")
	quizCmd.Flags().Bool("json", false, "Print the quiz as JSON")
}
