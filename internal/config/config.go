// Package config loads sensei's configuration from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/logging"
	"github.com/abhisek/sensei/internal/quizgen"
	"github.com/abhisek/sensei/internal/schedule"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "sensei.yaml"

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	LLM      llm.Config     `yaml:"llm"`
	Data     DataConfig     `yaml:"data"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Quiz     quizgen.Config `yaml:"quiz"`
	Log      logging.Config `yaml:"log"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`

	// Workers bounds how many updates are handled concurrently.
	Workers int `yaml:"workers"`

	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int `yaml:"poll_timeout"`
}

// DataConfig locates the on-disk state. File names without a directory
// part are placed under Dir.
type DataConfig struct {
	Dir         string `yaml:"dir"`
	QuizCache   string `yaml:"quiz_cache"`
	ActiveChats string `yaml:"active_chats"`
	EventDB     string `yaml:"event_db"`
}

type ScheduleConfig struct {
	Timezone string       `yaml:"timezone"`
	Slots    []SlotConfig `yaml:"slots"`
}

type SlotConfig struct {
	Label string `yaml:"label"`
	At    string `yaml:"at"` // "HH:MM"
}

// Default returns the built-in configuration.
func Default() Config {
	slots := make([]SlotConfig, len(schedule.DefaultSlots))
	for i, s := range schedule.DefaultSlots {
		slots[i] = SlotConfig{Label: s.Label, At: fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)}
	}

	return Config{
		Telegram: TelegramConfig{
			Workers:     8,
			PollTimeout: 60,
		},
		LLM: llm.DefaultConfig(),
		Data: DataConfig{
			Dir:         "data",
			QuizCache:   "quiz_cache.jsonl",
			ActiveChats: "active_chats.txt",
			EventDB:     "events.db",
		},
		Schedule: ScheduleConfig{
			Timezone: "UTC",
			Slots:    slots,
		},
		Quiz: quizgen.DefaultConfig(),
		Log:  logging.DefaultConfig(),
	}
}

// Load builds the configuration. When path is empty DefaultPath is tried
// and silently skipped if absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	ApplyEnv(&cfg)
	return cfg, nil
}

func decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides cfg from SENSEI_* variables and the variable names
// used by earlier deployments (TELEGRAM_BOT_TOKEN, DEBUG, QUIZ_CACHE_FILE,
// ACTIVE_CHATS_FILE, AI_TOKEN, AI_MODEL, AI_BASE_URL).
func ApplyEnv(cfg *Config) {
	setString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN", "SENSEI_TELEGRAM_TOKEN")
	setInt(&cfg.Telegram.Workers, "SENSEI_WORKERS")

	if debugEnabled("DEBUG") || debugEnabled("SENSEI_DEBUG") {
		cfg.Telegram.Debug = true
		cfg.Log.Level = "debug"
	}

	setString(&cfg.Data.Dir, "SENSEI_DATA_DIR")
	setString(&cfg.Data.QuizCache, "QUIZ_CACHE_FILE", "SENSEI_QUIZ_CACHE")
	setString(&cfg.Data.ActiveChats, "ACTIVE_CHATS_FILE", "SENSEI_ACTIVE_CHATS")
	setString(&cfg.Data.EventDB, "SENSEI_EVENT_DB")

	setString(&cfg.Schedule.Timezone, "SENSEI_TIMEZONE")

	setString(&cfg.Log.Level, "SENSEI_LOG_LEVEL")
	if v, ok := os.LookupEnv("SENSEI_LOG_FILE"); ok {
		cfg.Log.File = v
	}

	llm.ApplyEnv(&cfg.LLM)
}

// setString assigns the last non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func debugEnabled(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "true" || v == "1" || v == "yes"
}

// QuizCachePath returns the resolved quiz store path.
func (c Config) QuizCachePath() string { return c.Data.resolve(c.Data.QuizCache) }

// ActiveChatsPath returns the resolved active chat registry path.
func (c Config) ActiveChatsPath() string { return c.Data.resolve(c.Data.ActiveChats) }

// EventDBPath returns the resolved event log path.
func (c Config) EventDBPath() string { return c.Data.resolve(c.Data.EventDB) }

func (d DataConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || filepath.Dir(p) != "." {
		return p
	}
	return filepath.Join(d.Dir, p)
}

// Location returns the schedule time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	return loc, nil
}

// Slots parses the configured schedule slots.
func (c Config) Slots() ([]schedule.Slot, error) {
	if len(c.Schedule.Slots) == 0 {
		return nil, errors.New("schedule.slots must list at least one slot")
	}
	seen := make(map[string]bool)
	out := make([]schedule.Slot, 0, len(c.Schedule.Slots))
	for _, sc := range c.Schedule.Slots {
		s, err := schedule.ParseSlot(sc.Label, sc.At)
		if err != nil {
			return nil, err
		}
		if seen[s.Label] {
			return nil, fmt.Errorf("duplicate schedule slot %q", s.Label)
		}
		seen[s.Label] = true
		out = append(out, s)
	}
	return out, nil
}

// Validate checks settings every command relies on.
func (c Config) Validate() error {
	var errs []error
	if c.QuizCachePath() == "" {
		errs = append(errs, errors.New("data.quiz_cache must be set"))
	}
	if c.ActiveChatsPath() == "" {
		errs = append(errs, errors.New("data.active_chats must be set"))
	}
	if c.Telegram.Workers < 1 {
		errs = append(errs, errors.New("telegram.workers must be at least 1"))
	}
	if c.Quiz.RecentWindow < 0 {
		errs = append(errs, errors.New("quiz.recent_window must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Slots(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateBot additionally checks what running the bot needs.
func (c Config) ValidateBot() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("a Telegram bot token (TELEGRAM_BOT_TOKEN) is required"))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
