package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/asciivid/internal/pipeline"
)

type ProgressMsg pipeline.Progress

// DoneMsg ends the progress view. Err is nil on success.
type DoneMsg struct {
	Files []string
	Err   error
}

type spinMsg struct{}

// Progress shows a conversion as a spinner, stage name and bar. Ctrl+C
// calls cancel and waits for the pipeline to report DoneMsg.
type Progress struct {
	title    string
	cancel   func()
	current  pipeline.Progress
	frame    int
	done     bool
	canceled bool
	result   DoneMsg
}

func NewProgress(title string, cancel func()) *Progress {
	return &Progress{title: title, cancel: cancel, current: pipeline.Progress{Stage: pipeline.StageLoading}}
}

// Result is the final DoneMsg once the program has exited.
func (m *Progress) Result() DoneMsg { return m.result }

func spin() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func (m *Progress) Init() tea.Cmd { return spin() }

func (m *Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.canceled {
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
	case ProgressMsg:
		m.current = pipeline.Progress(msg)
	case DoneMsg:
		m.done = true
		m.result = msg
		return m, tea.Quit
	case spinMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, spin()
	}
	return m, nil
}

func (m *Progress) View() string {
	if m.done {
		if m.result.Err != nil {
			return ErrorStyle.Render("✗ "+m.result.Err.Error()) + "\n"
		}
		return StatusPlaying.Render("✓ ") + strings.Join(m.result.Files, "\n  ") + "\n"
	}

	stage := string(m.current.Stage)
	if m.canceled {
		stage = "canceling"
	}
	counter := ""
	if m.current.Total > 0 {
		counter = Subtle.Render(fmt.Sprintf(" %d/%d", m.current.Frame, m.current.Total))
	}
	return fmt.Sprintf("%s %s  %-10s %s %5.1f%%%s\n",
		Spinner(m.frame),
		TitleStyle.Render(m.title),
		stage,
		Bar(m.current.Percent/100, 30),
		m.current.Percent,
		counter,
	)
}
