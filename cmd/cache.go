package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sensei/internal/cache"
	"github.com/abhisek/sensei/internal/quiz"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the quiz cache",
}

// openCache opens the configured quiz cache for inspection.
func openCache(cmd *cobra.Command) (*cache.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, err := cache.Open(cfg.QuizCachePath())
	if err != nil {
		return nil, fmt.Errorf("open quiz cache: %w", err)
	}
	return s, nil
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.List(offset, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No cached quizzes found.")
			return nil
		}

		fmt.Fprintf(out, "%-6s  %-5s  %-6s  %s\n", "Index", "Level", "Answer", "Question")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, e := range entries {
			if e.Err != nil {
				fmt.Fprintf(out, "%-6d  %-5s  %-6s  (unreadable: %v)\n", e.Index, "-", "-", e.Err)
				continue
			}
			fmt.Fprintf(out, "%-6d  %-5s  %-6s  %s\n",
				e.Index,
				quiz.LevelOf(e.Record.Question),
				quiz.Label(e.Record.CorrectOptionID),
				truncate(firstLine(e.Record.Question), 60))
		}
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Show one cached quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[0], err)
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.ReadAt(idx)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}
		printRecord(cmd.OutOrStdout(), idx, rec)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the quiz cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File:      %s\n", s.Path())
		fmt.Fprintf(out, "Lines:     %d\n", st.Lines)
		fmt.Fprintf(out, "Valid:     %d\n", st.Valid)
		fmt.Fprintf(out, "Invalid:   %d\n", st.Invalid)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-8s  %6s\n", "Level", "Count")
		fmt.Fprintln(out, strings.Repeat("─", 16))
		for _, l := range append([]quiz.Level{quiz.LevelNone}, quiz.Levels...) {
			if n := st.ByLevel[l]; n > 0 {
				fmt.Fprintf(out, "%-8s  %6d\n", l, n)
			}
		}
		return nil
	},
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func init() {
	cacheListCmd.Flags().Int("offset", 0, "Index of the first quiz to show")
	cacheListCmd.Flags().IntP("limit", "n", 20, "Number of quizzes to show (0 for all)")
	cacheShowCmd.Flags().Bool("json", false, "Print the quiz as JSON")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
