// Package schedule runs the daily per-chat quiz triggers.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrNotScheduled is returned by Disable when the chat had no triggers.
var ErrNotScheduled = errors.New("no scheduled quizzes for this chat")

// ErrNoSlots is returned by Enable when the scheduler has no slots.
var ErrNoSlots = errors.New("no schedule slots configured")

// FireFunc is invoked when a chat's trigger fires.
type FireFunc func(ctx context.Context, chatID int64)

// Slot is a daily time of day at which every enabled chat gets a quiz.
type Slot struct {
	Label  string
	Hour   int
	Minute int
}

// DefaultSlots are 06:00, 14:00 and 18:00 UTC (09:00, 17:00 and 21:00 at
// UTC+3).
var DefaultSlots = []Slot{
	{Label: "morning", Hour: 6},
	{Label: "afternoon", Hour: 14},
	{Label: "evening", Hour: 18},
}

// ParseSlot parses an "HH:MM" time of day.
func ParseSlot(label, at string) (Slot, error) {
	if strings.TrimSpace(label) == "" {
		return Slot{}, fmt.Errorf("slot label must not be empty")
	}
	t, err := time.Parse("15:04", strings.TrimSpace(at))
	if err != nil {
		return Slot{}, fmt.Errorf("slot %q: invalid time %q (want HH:MM)", label, at)
	}
	return Slot{Label: label, Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (s Slot) spec() string {
	return fmt.Sprintf("%d %d * * *", s.Minute, s.Hour)
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %02d:%02d", s.Label, s.Hour, s.Minute)
}

// JobName is the unique name of a chat's trigger for a slot.
func JobName(label string, chatID int64) string {
	return label + "-" + strconv.FormatInt(chatID, 10)
}

// Trigger describes a registered daily trigger.
type Trigger struct {
	Name   string
	Label  string
	ChatID int64
	Next   time.Time
}

type job struct {
	id     cron.EntryID
	chatID int64
	label  string
}

// Scheduler owns one cron runtime for the process and the name → entry
// mapping of every chat trigger.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	slots  []Slot
	fire   FireFunc
	loc    *time.Location
	jobs   map[string]job
	ctx    context.Context
	logger *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the time zone slots are interpreted in. Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a Scheduler. It does not run triggers until Start.
func New(slots []Slot, fire FireFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		slots:  slices.Clone(slots),
		fire:   fire,
		loc:    time.UTC,
		jobs:   make(map[string]job),
		ctx:    context.Background(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("schedule")

	cl := cronLogger{s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	return s
}

// Slots returns the configured slots.
func (s *Scheduler) Slots() []Slot {
	return slices.Clone(s.slots)
}

// Start begins running triggers. ctx is passed to every firing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
}

// Stop halts the cron runtime. The returned context is done once running
// firings have completed.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Enable (re)creates one daily trigger per slot for chatID. Calling it again
// replaces the existing triggers, so a chat always has exactly len(slots).
// It returns ErrNoSlots when there is nothing to schedule.
func (s *Scheduler) Enable(chatID int64) error {
	if len(s.slots) == 0 {
		return ErrNoSlots
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range s.slots {
		name := JobName(slot.Label, chatID)
		if existing, ok := s.jobs[name]; ok {
			s.cron.Remove(existing.id)
			delete(s.jobs, name)
		}

		id, err := s.cron.AddFunc(slot.spec(), s.firing(chatID, name))
		if err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
		s.jobs[name] = job{id: id, chatID: chatID, label: slot.Label}

		s.logger.Info("scheduled quiz",
			zap.Int64("chat_id", chatID),
			zap.String("slot", slot.String()),
			zap.String("job", name))
	}
	return nil
}

// Disable removes every trigger of chatID. It returns ErrNotScheduled when
// there was nothing to remove.
func (s *Scheduler) Disable(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for name, j := range s.jobs {
		if j.chatID != chatID {
			continue
		}
		s.cron.Remove(j.id)
		delete(s.jobs, name)
		removed++
	}
	if removed == 0 {
		return ErrNotScheduled
	}

	s.logger.Info("removed scheduled quizzes",
		zap.Int64("chat_id", chatID), zap.Int("jobs", removed))
	return nil
}

// Rehydrate enables every chat in ids. Failures are collected and returned
// together; the remaining chats are still scheduled.
func (s *Scheduler) Rehydrate(ids []int64) error {
	var errs []error
	for _, id := range ids {
		if err := s.Enable(id); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Triggers returns the triggers of chatID ordered by slot label.
func (s *Scheduler) Triggers(chatID int64) []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().In(s.loc)
	var out []Trigger
	for name, j := range s.jobs {
		if j.chatID != chatID {
			continue
		}
		t := Trigger{Name: name, Label: j.label, ChatID: chatID}
		if e := s.cron.Entry(j.id); e.Valid() {
			t.Next = e.Schedule.Next(now)
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Trigger) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Len returns the total number of registered triggers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) firing(chatID int64, name string) func() {
	return func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		s.logger.Info("firing scheduled quiz", zap.String("job", name), zap.Int64("chat_id", chatID))
		s.fire(ctx, chatID)
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
