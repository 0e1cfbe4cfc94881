package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sensei/internal/ui/theme"
)

// ScoreBar shows correct answers out of answered questions.
type ScoreBar struct {
	Correct  int
	Answered int
	Width    int
}

// Percent returns the share of correct answers in [0, 1].
func (p ScoreBar) Percent() float64 {
	if p.Answered == 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Answered)
}

func (p ScoreBar) View() string {
	label := theme.Body.Render(fmt.Sprintf("%d/%d", p.Correct, p.Answered)) + "  "

	barWidth := p.Width - lipgloss.Width(label)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := min(max(int(float64(barWidth)*p.Percent()), 0), barWidth)

	return label +
		theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))
}
