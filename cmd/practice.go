package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sensei/internal/practice"
	"github.com/abhisek/sensei/internal/quiz"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Answer quizzes in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := levelFlag(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// The TUI owns the terminal; logs go to the file only.
		cfg.Log.Quiet = true
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

		correct, answered, err := practice.Run(ctx, gen, level, level == quiz.LevelNone)
		if err != nil {
			return err
		}
		if answered > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Score: %d/%d\n", correct, answered)
		}
		return nil
	},
}

func init() {
	practiceCmd.Flags().StringP("level", "l", "", "JLPT level N1..N5 (default: ask)")
}
