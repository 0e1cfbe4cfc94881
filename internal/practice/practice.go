// Package practice runs a terminal quiz session against the generator,
// for trying prompts and providers without Telegram.
package practice

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/quizgen"
	"github.com/abhisek/sensei/internal/ui/components"
	"github.com/abhisek/sensei/internal/ui/layout"
	"github.com/abhisek/sensei/internal/ui/theme"
)

// Quizzer produces quizzes and explanations.
type Quizzer interface {
	Generate(ctx context.Context, level quiz.Level) (*quizgen.Result, error)
	Explain(ctx context.Context, rec quiz.Record) (string, error)
}

type phase int

const (
	phaseLevel phase = iota
	phaseLoading
	phaseQuestion
	phaseAnswered
	phaseExplaining
)

type quizReadyMsg struct {
	Result *quizgen.Result
	Err    error
}

type explanationMsg struct {
	Text string
	Err  error
}

// Model is the practice session.
type Model struct {
	ctx     context.Context
	quizzes Quizzer

	phase   phase
	level   quiz.Level
	input   components.LevelInput
	current *quizgen.Result
	choice  components.MultiChoice
	explain string
	errMsg  string

	answered int
	correct  int

	width  int
	height int
}

// New creates a session. With askLevel false the level prompt is skipped
// and level is used for every quiz.
func New(ctx context.Context, quizzes Quizzer, level quiz.Level, askLevel bool) Model {
	m := Model{
		ctx:     ctx,
		quizzes: quizzes,
		level:   level,
		input:   components.NewLevelInput(),
		phase:   phaseLevel,
	}
	if !askLevel {
		m.phase = phaseLoading
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.phase == phaseLoading {
		return m.fetchQuiz()
	}
	return m.input.Init()
}

func (m Model) fetchQuiz() tea.Cmd {
	ctx, quizzes, level := m.ctx, m.quizzes, m.level
	return func() tea.Msg {
		res, err := quizzes.Generate(ctx, level)
		return quizReadyMsg{Result: res, Err: err}
	}
}

func (m Model) fetchExplanation() tea.Cmd {
	ctx, quizzes, rec := m.ctx, m.quizzes, m.current.Record
	return func() tea.Msg {
		text, err := quizzes.Explain(ctx, rec)
		return explanationMsg{Text: text, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case quizReadyMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			m.phase = phaseAnswered
			m.current = nil
			return m, nil
		}
		m.errMsg = ""
		m.explain = ""
		m.current = msg.Result
		m.choice = components.NewMultiChoice(msg.Result.Record)
		m.phase = phaseQuestion
		return m, nil

	case explanationMsg:
		m.phase = phaseAnswered
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.explain = msg.Text
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if m.phase == phaseLevel {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "esc" {
		return m, tea.Quit
	}

	switch m.phase {
	case phaseLevel:
		if key == "enter" {
			level, ok := m.input.Level()
			if !ok {
				return m, nil
			}
			m.level = level
			m.phase = phaseLoading
			return m, m.fetchQuiz()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case phaseQuestion:
		m.choice, _ = m.choice.Update(msg)
		if m.choice.Submitted {
			m.answered++
			if m.choice.IsCorrect() {
				m.correct++
			}
			m.phase = phaseAnswered
		}
		return m, nil

	case phaseAnswered:
		switch key {
		case "n", "enter":
			m.phase = phaseLoading
			return m, m.fetchQuiz()
		case "e":
			if m.current != nil && m.explain == "" {
				m.phase = phaseExplaining
				m.errMsg = ""
				return m, m.fetchExplanation()
			}
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

// Score returns correct and answered counts.
func (m Model) Score() (correct, answered int) {
	return m.correct, m.answered
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	width := m.width
	if width == 0 {
		width = 80
	}
	height := m.height
	if height == 0 {
		height = 24
	}

	score := components.ScoreBar{Correct: m.correct, Answered: m.answered, Width: 24}
	header := layout.RenderHeader("practice · "+m.level.String(), score.View(), width)
	footer := layout.RenderFooter(m.keyHints(), width)

	v.SetContent(layout.RenderFrame(header, m.content(width), footer, width, height))
	return v
}

func (m Model) content(width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-6, 20))

	switch m.phase {
	case phaseLevel:
		return theme.Body.Render("Which JLPT level would you like to practise?") + "\n\n" + m.input.View()
	case phaseLoading:
		return theme.Hint.Render("Asking sensei for a question…")
	}

	if m.current == nil {
		return theme.Incorrect.Render("No quiz available: ") + wrap.Render(m.errMsg)
	}

	var b strings.Builder
	b.WriteString(wrap.Render(m.choice.View()))

	if m.phase == phaseQuestion {
		return b.String()
	}

	b.WriteString("\n")
	if m.choice.IsCorrect() {
		b.WriteString(theme.Correct.Render("正解! Correct."))
	} else {
		b.WriteString(theme.Incorrect.Render(fmt.Sprintf("Not quite. The answer is %s.", quiz.Label(m.choice.CorrectIndex))))
	}
	b.WriteString("\n\n")
	b.WriteString(wrap.Render(m.current.Record.Explanation))
	if m.current.Provenance == quizgen.CachedFallback {
		b.WriteString("\n" + theme.Hint.Render("(from the quiz cache)"))
	}

	switch {
	case m.phase == phaseExplaining:
		b.WriteString("\n\n" + theme.Hint.Render("Fetching a detailed explanation…"))
	case m.explain != "":
		b.WriteString("\n\n" + theme.Title.Render("📘 Explanation") + "\n" + wrap.Render(m.explain))
	case m.errMsg != "":
		b.WriteString("\n\n" + theme.Incorrect.Render(m.errMsg))
	}
	return b.String()
}

func (m Model) keyHints() []layout.KeyHint {
	switch m.phase {
	case phaseLevel:
		return []layout.KeyHint{{Key: "Enter", Description: "Start"}, {Key: "Esc", Description: "Quit"}}
	case phaseQuestion:
		return []layout.KeyHint{{Key: "↑↓/A-D", Description: "Choose"}, {Key: "Enter", Description: "Answer"}, {Key: "Esc", Description: "Quit"}}
	case phaseAnswered:
		return []layout.KeyHint{{Key: "N", Description: "Next"}, {Key: "E", Description: "Explain"}, {Key: "Q", Description: "Quit"}}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Quit"}}
}

// Run starts the session and returns the final score.
func Run(ctx context.Context, quizzes Quizzer, level quiz.Level, askLevel bool) (correct, answered int, err error) {
	p := tea.NewProgram(New(ctx, quizzes, level, askLevel), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return 0, 0, err
	}
	m, ok := final.(Model)
	if !ok {
		return 0, 0, nil
	}
	correct, answered = m.Score()
	return correct, answered, nil
}
