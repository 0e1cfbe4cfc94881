package components

import (
	"errors"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/ui/theme"
)

// LevelInput asks for a JLPT level. An empty answer means any level.
type LevelInput struct {
	Model textinput.Model
}

var errBadLevel = errors.New("enter N1 to N5, or leave blank for any level")

// NewLevelInput creates a focused level prompt that suggests N1..N5.
func NewLevelInput() LevelInput {
	ti := textinput.New()
	ti.Prompt = "Level › "
	ti.Placeholder = "N5 … N1, blank for any"
	ti.CharLimit = 2
	ti.ShowSuggestions = true

	suggestions := make([]string, len(quiz.Levels))
	for i, l := range quiz.Levels {
		suggestions[i] = string(l)
	}
	ti.SetSuggestions(suggestions)
	ti.Validate = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, ok := quiz.ParseLevel(s); !ok {
			return errBadLevel
		}
		return nil
	}
	ti.Focus()

	return LevelInput{Model: ti}
}

// Init returns the cursor blink command.
func (t LevelInput) Init() tea.Cmd {
	return t.Model.Focus()
}

func (t LevelInput) Update(msg tea.Msg) (LevelInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t LevelInput) View() string {
	view := t.Model.View()
	if t.Model.Err != nil && strings.TrimSpace(t.Model.Value()) != "" {
		view += "\n" + theme.Hint.Render(t.Model.Err.Error())
	}
	return view
}

// Level returns the entered level and whether the input is acceptable.
func (t LevelInput) Level() (quiz.Level, bool) {
	v := strings.TrimSpace(t.Model.Value())
	if v == "" {
		return quiz.LevelNone, true
	}
	return quiz.ParseLevel(v)
}
