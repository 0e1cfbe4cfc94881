package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/abhisek/sensei/internal/config"
	"github.com/abhisek/sensei/internal/logging"
	"github.com/abhisek/sensei/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "sensei",
	Short: "JLPT quiz bot for Telegram",
	Long: "Sensei posts JLPT multiple-choice quizzes to Telegram chats on a daily schedule,\n" +
		"generating them with an LLM and falling back to a local quiz cache.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(versionCmd)
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to the YAML config file (overrides SENSEI_CONFIG, default sensei.yaml)")
	fs.String("data-dir", "", "Directory holding the quiz cache and active chats (overrides data.dir)")
	fs.String("log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
	fs.String("db", "", "Path to the LLM event database (overrides data.event_db)")
}

// loadConfig resolves configuration: defaults, then the YAML file, then
// the environment, then command-line flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("SENSEI_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Data.Dir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.Data.EventDB = v
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveDBPath returns the event database path from config, falling back
// to the per-user default location.
func resolveDBPath(cfg config.Config) (string, error) {
	if p := cfg.EventDBPath(); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openEvents opens the LLM event log. The log is diagnostics only, so a
// failure is logged and generation proceeds without it.
func openEvents(cfg config.Config, logger *zap.Logger) (store.EventRepo, func()) {
	path, err := resolveDBPath(cfg)
	if err == nil {
		var st *store.Store
		if st, err = store.Open(path); err == nil {
			return st.EventRepo(), func() { st.Close() }
		}
	}
	logger.Warn("LLM event log unavailable", zap.String("path", path), zap.Error(err))
	return nil, func() {}
}

func newLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, closeFn, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	return logger, closeFn, nil
}
