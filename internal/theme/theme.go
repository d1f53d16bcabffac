package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devflow/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle is used for section headers in command output.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// SpinnerStyle colors the in-flight spinner.
var SpinnerStyle = lipgloss.NewStyle().Foreground(ColorMagenta)

// SuccessStyle marks completed operations.
var SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)

// FailureStyle marks failed operations.
var FailureStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// WarningStyle marks issues that are already in the target status.
var WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorYellow)

// HelpStyle is used for hints and secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// StatusStyle returns the style for an issue's current status relative
// to the target.
func StatusStyle(inTarget bool) lipgloss.Style {
	if inTarget {
		return WarningStyle
	}
	return lipgloss.NewStyle().Foreground(ColorBlue)
}

// Summary renders a batch result: the counts line followed by one line
// per error.
func Summary(r model.BatchResult) string {
	var b strings.Builder

	switch {
	case r.Attempted() == 0:
		b.WriteString(HelpStyle.Render("Nothing was attempted."))
	case r.Failed == 0:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("✓ %d succeeded", r.Success)))
	default:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("%d succeeded", r.Success)))
		b.WriteString(", ")
		b.WriteString(FailureStyle.Render(fmt.Sprintf("%d failed", r.Failed)))
	}

	for _, e := range r.Errors {
		b.WriteString("\n  ")
		b.WriteString(FailureStyle.Render("✗"))
		b.WriteString(" ")
		b.WriteString(e)
	}
	return b.String()
}
