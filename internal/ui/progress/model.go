// Package progress shows a spinner while a batch is in flight.
package progress

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/devflow/internal/keys"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/theme"
)

// resultMsg carries the batch outcome to the Bubble Tea runtime.
type resultMsg struct {
	result model.BatchResult
	ok     bool
}

// Model waits on a batch result channel and renders a spinner until the
// result arrives.
type Model struct {
	label       string
	results     <-chan model.BatchResult
	keys        *keys.KeyMap
	spinner     spinner.Model
	result      model.BatchResult
	done        bool
	interrupted bool
}

// New creates a progress model waiting on results.
func New(label string, results <-chan model.BatchResult) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.SpinnerStyle

	return Model{label: label, results: results, keys: keys.DefaultKeyMap(), spinner: sp}
}

// Init starts the spinner and subscribes to the result channel.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForResult(m.results))
}

func waitForResult(results <-chan model.BatchResult) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-results
		return resultMsg{result: result, ok: ok}
	}
}

// Update handles spinner ticks, the result and interrupts.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.done = msg.ok
		m.result = msg.result
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner line while waiting.
func (m Model) View() string {
	if m.done || m.interrupted {
		return ""
	}
	return fmt.Sprintf(
		"%s %s  %s\n",
		m.spinner.View(), m.label,
		theme.HelpStyle.Render(m.keys.Quit.Help().Key+" "+m.keys.Quit.Help().Desc),
	)
}

// Result returns the batch outcome and whether one was received.
func (m Model) Result() (model.BatchResult, bool) {
	return m.result, m.done
}

// Wait runs the spinner on out until the batch result arrives. Without a
// terminal the result is read directly.
func Wait(out io.Writer, interactive bool, label string, results <-chan model.BatchResult) (model.BatchResult, error) {
	if !interactive {
		return <-results, nil
	}

	final, err := tea.NewProgram(New(label, results), tea.WithOutput(out)).Run()
	if err != nil {
		return model.BatchResult{}, fmt.Errorf("running progress view: %w", err)
	}

	result, ok := final.(Model).Result()
	if !ok {
		return model.BatchResult{}, fmt.Errorf("interrupted before the batch finished")
	}
	return result, nil
}
