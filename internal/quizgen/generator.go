// Package quizgen composes quiz prompts, asks the LLM provider for a new
// JLPT question and falls back to the quiz cache when that fails.
package quizgen

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/quiz"
)

// ErrUnavailable is returned when neither the provider nor the cache can
// supply a quiz.
var ErrUnavailable = errors.New("no quiz available")

// Store is the subset of the quiz cache the generator needs.
type Store interface {
	Append(rec quiz.Record) (int, error)
	Tail(n int) ([]quiz.Record, error)
	RandomSample() (quiz.Record, int, error)
}

// Provenance tells where a delivered quiz came from.
type Provenance int

const (
	Fresh Provenance = iota
	CachedFallback
)

func (p Provenance) String() string {
	switch p {
	case Fresh:
		return "fresh"
	case CachedFallback:
		return "cache"
	default:
		return fmt.Sprintf("Provenance(%d)", int(p))
	}
}

// Result is a quiz ready for delivery. Index is the record's position in
// the store and is what explain callbacks refer to.
type Result struct {
	Record     quiz.Record
	Index      int
	Provenance Provenance
}

// Generator produces quizzes.
type Generator struct {
	provider llm.Provider
	store    Store
	config   Config
	logger   *zap.Logger
}

// New creates a Generator. A nil logger discards log output.
func New(provider llm.Provider, store Store, cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		provider: provider,
		store:    store,
		config:   cfg,
		logger:   logger.Named("quizgen"),
	}
}

// Generate asks the provider for a new quiz at the given level (LevelNone
// for no preference) and appends it to the store. If any step fails, a
// random cached quiz is returned instead.
func (g *Generator) Generate(ctx context.Context, level quiz.Level) (*Result, error) {
	rec, idx, err := g.generateFresh(ctx, level)
	if err == nil {
		g.logger.Info("generated quiz",
			zap.Int("index", idx),
			zap.Stringer("level", quiz.LevelOf(rec.Question)))
		return &Result{Record: rec, Index: idx, Provenance: Fresh}, nil
	}

	g.logger.Warn("quiz generation failed, falling back to cache",
		zap.Stringer("requested_level", level),
		zap.Error(err))

	rec, idx, ferr := g.store.RandomSample()
	if ferr != nil {
		g.logger.Error("no cached quiz to fall back to", zap.Error(ferr))
		return nil, fmt.Errorf("%w: generation: %w; cache: %w", ErrUnavailable, err, ferr)
	}

	return &Result{Record: rec, Index: idx, Provenance: CachedFallback}, nil
}

func (g *Generator) generateFresh(ctx context.Context, level quiz.Level) (quiz.Record, int, error) {
	recent, err := g.store.Tail(g.config.RecentWindow)
	if err != nil {
		return quiz.Record{}, 0, fmt.Errorf("read recent quizzes: %w", err)
	}

	req := buildRequest(recent, level, g.config)

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, llm.PurposeQuizGen), req)
	if err != nil {
		return quiz.Record{}, 0, fmt.Errorf("LLM generation failed: %w", err)
	}

	rec, err := ParseRecord(string(resp.Content))
	if err != nil {
		g.logger.Debug("rejected quiz reply", zap.String("raw", string(resp.Content)))
		return quiz.Record{}, 0, err
	}

	idx, err := g.store.Append(rec)
	if err != nil {
		return quiz.Record{}, 0, fmt.Errorf("cache quiz: %w", err)
	}
	return rec, idx, nil
}

// Explain asks the provider for a detailed explanation of rec.
func (g *Generator) Explain(ctx context.Context, rec quiz.Record) (string, error) {
	if rec.Question == "" {
		return "", fmt.Errorf("explain: empty question")
	}

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, llm.PurposeExplain), buildExplainRequest(rec, g.config))
	if err != nil {
		return "", fmt.Errorf("LLM explanation failed: %w", err)
	}

	text := StripCodeFence(resp.Text())
	if text == "" {
		return "", &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("empty explanation")}
	}
	return text, nil
}
