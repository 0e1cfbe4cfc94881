package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sensei/internal/chats"
	"github.com/abhisek/sensei/internal/schedule"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage chats that receive daily quizzes",
	Long: "Manage the active chat registry. Changes made here are picked up the next time\n" +
		"the bot starts; stop the bot first, as a running bot rewrites the file.",
}

func openRegistry(cmd *cobra.Command) (*chats.Registry, *schedule.Scheduler, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	slots, err := cfg.Slots()
	if err != nil {
		return nil, nil, err
	}
	sched := schedule.New(slots, func(context.Context, int64) {}, schedule.WithLocation(loc))
	return chats.Open(cfg.ActiveChatsPath(), nil), sched, nil
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active chats and their next quiz times",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, sched, err := openRegistry(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ids := reg.IDs()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No active chats.")
			return nil
		}

		// Schedule the chats on an unstarted scheduler to report the
		// times the bot would use.
		if err := sched.Rehydrate(ids); err != nil {
			return err
		}

		fmt.Fprintf(out, "%-16s  %s\n", "Chat", "Next quizzes")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, id := range ids {
			var next []string
			for _, t := range sched.Triggers(id) {
				next = append(next, fmt.Sprintf("%s %s", t.Label, t.Next.Format("01-02 15:04 MST")))
			}
			fmt.Fprintf(out, "%-16d  %s\n", id, strings.Join(next, ", "))
		}
		return nil
	},
}

var chatsAddCmd = &cobra.Command{
	Use:   "add <chat-id>",
	Short: "Enable daily quizzes for a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editRegistry(cmd, args[0], true)
	},
}

var chatsRemoveCmd = &cobra.Command{
	Use:   "remove <chat-id>",
	Short: "Disable daily quizzes for a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editRegistry(cmd, args[0], false)
	},
}

func editRegistry(cmd *cobra.Command, arg string, add bool) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", arg, err)
	}
	reg, _, err := openRegistry(cmd)
	if err != nil {
		return err
	}

	var changed bool
	if add {
		changed, err = reg.Add(id)
	} else {
		changed, err = reg.Remove(id)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !changed && add:
		fmt.Fprintf(out, "Chat %d is already active.\n", id)
	case !changed:
		fmt.Fprintf(out, "Chat %d is not active.\n", id)
	case add:
		fmt.Fprintf(out, "Chat %d added.\n", id)
	default:
		fmt.Fprintf(out, "Chat %d removed.\n", id)
	}
	return nil
}

func init() {
	chatsCmd.AddCommand(chatsListCmd)
	chatsCmd.AddCommand(chatsAddCmd)
	chatsCmd.AddCommand(chatsRemoveCmd)
}
