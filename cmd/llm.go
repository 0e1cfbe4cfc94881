package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/store"
	"github.com/abhisek/sensei/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests, token usage and cost",
}

func openEventStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open event database %s: %w", dbPath, err)
	}
	return s, nil
}

// newTable returns a table styled with the app theme. Right-aligned
// columns hold numbers.
func newTable(right map[int]bool, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				s = s.Bold(true).Foreground(theme.Primary)
			}
			if right[col] {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM requests recorded.")
			return nil
		}

		t := newTable(map[int]bool{0: true, 4: true, 5: true, 6: true},
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		for _, e := range events {
			t.Row(
				strconv.Itoa(e.ID),
				e.Timestamp.Local().Format(timeLayout),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				okMark(e.Success),
			)
		}
		_, err = lipgloss.Fprintln(out, t)
		return err
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and reply of one LLM request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("LLM request %d not found", id)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(e)
		}
		printEvent(out, e)
		return nil
	},
}

func printEvent(w io.Writer, e *store.LLMEvent) {
	field := func(name, value string) {
		fmt.Fprintf(w, "%-10s %s\n", name+":", value)
	}
	field("ID", strconv.Itoa(e.ID))
	field("Time", e.Timestamp.Local().Format(timeLayout))
	field("Provider", e.Provider)
	field("Model", e.Model)
	field("Purpose", e.Purpose)
	field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
	if cost := llm.LookupCost(e.Model); cost != nil {
		field("Cost", formatCost(cost.Cost(e.InputTokens, e.OutputTokens))+" (estimated)")
	}
	field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
	field("Success", strconv.FormatBool(e.Success))
	if e.ErrorMessage != "" {
		field("Error", e.ErrorMessage)
	}

	section := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent)
	for _, part := range []struct{ title, body string }{
		{"Request", e.RequestBody},
		{"Response", e.ResponseBody},
	} {
		body := part.body
		if body == "" {
			body = "(not captured)"
		}
		lipgloss.Fprintf(w, "\n%s\n%s\n", section.Render("── "+part.title+" ──"), body)
	}
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No LLM usage recorded yet.")
			return nil
		}

		usage := newTable(map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true},
			"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
		var calls, in, outTok int
		for _, st := range byPurpose {
			usage.Row(st.Purpose,
				strconv.Itoa(st.Calls),
				strconv.Itoa(st.Failures),
				strconv.Itoa(st.InputTokens),
				strconv.Itoa(st.OutputTokens),
				strconv.Itoa(st.InputTokens+st.OutputTokens),
				strconv.FormatInt(st.AvgLatencyMs, 10))
			calls += st.Calls
			in += st.InputTokens
			outTok += st.OutputTokens
		}
		usage.Row("TOTAL", strconv.Itoa(calls), "", strconv.Itoa(in), strconv.Itoa(outTok), strconv.Itoa(in+outTok), "")
		lipgloss.Fprintln(out, theme.Title.Render("Usage by purpose"))
		lipgloss.Fprintln(out, usage)

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) == 0 {
			return nil
		}

		costs := newTable(map[int]bool{1: true, 2: true, 3: true, 4: true},
			"Model", "Calls", "Input", "Output", "Cost")
		var total float64
		partial := false
		for _, mu := range byModel {
			cost := "?"
			if c := llm.LookupCost(mu.Model); c != nil {
				usd := c.Cost(mu.InputTokens, mu.OutputTokens)
				total += usd
				cost = formatCost(usd)
			} else {
				partial = true
			}
			costs.Row(truncate(mu.Model, 32), strconv.Itoa(mu.Calls),
				strconv.Itoa(mu.InputTokens), strconv.Itoa(mu.OutputTokens), cost)
		}
		label := "TOTAL"
		if partial {
			label = "TOTAL (partial)"
		}
		costs.Row(label, "", "", "", formatCost(total))

		lipgloss.Fprintln(out)
		lipgloss.Fprintln(out, theme.Title.Render("Estimated cost (USD)"))
		_, err = lipgloss.Fprintln(out, costs)
		return err
	},
}

func okMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "filter by purpose (quiz-gen, explain)")
	llmViewCmd.Flags().Bool("json", false, "print the request as JSON")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
