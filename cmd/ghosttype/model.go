package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/ghosttype/internal/config"
	"github.com/runger/ghosttype/internal/history"
	"github.com/runger/ghosttype/internal/orchestrator"
	"github.com/runger/ghosttype/internal/textbuf"
	"github.com/runger/ghosttype/internal/trigger"
)

// surfaces is the render target shared between the display channels and the
// editor model. Channels write to it from the orchestrator's delivery
// goroutine; View reads it on the bubbletea loop, so access is locked.
type surfaces struct {
	mu       sync.Mutex
	ghost    string
	ghostAt  int
	hasGhost bool
	popup    string
	popupAt  int
	hasPopup bool
}

func newSurfaces() *surfaces {
	return &surfaces{}
}

func (s *surfaces) SetGhost(anchor int, rendered string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ghost = rendered
	s.ghostAt = anchor
	s.hasGhost = true
	return nil
}

func (s *surfaces) ClearGhost() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ghost = ""
	s.hasGhost = false
}

func (s *surfaces) ShowPopup(anchor int, box string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popup = box
	s.popupAt = anchor
	s.hasPopup = true
	return nil
}

func (s *surfaces) HidePopup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popup = ""
	s.hasPopup = false
}

func (s *surfaces) snapshot() (ghost string, ghostAt int, hasGhost bool, popup string, hasPopup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ghost, s.ghostAt, s.hasGhost, s.popup, s.hasPopup
}

// statusMsg carries an orchestrator status event into the bubbletea loop.
type statusMsg orchestrator.Status

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	editorStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

type model struct {
	buf      *textbuf.Buffer
	orch     *orchestrator.Orchestrator
	surf     *surfaces
	store    *history.Store
	provName string

	spin     spinner.Model
	status   orchestrator.StatusKind
	lastErr  error
	width    int
	height   int
	quitting bool
}

func newModel(buf *textbuf.Buffer, orch *orchestrator.Orchestrator, surf *surfaces, store *history.Store, provName string) model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return model{
		buf:      buf,
		orch:     orch,
		surf:     surf,
		store:    store,
		provName: provName,
		spin:     sp,
		status:   orchestrator.StatusIdle,
	}
}

// listenStatus blocks on the orchestrator's event channel and feeds the
// next status into Update.
func listenStatus(orch *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		return statusMsg(<-orch.Events())
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, listenStatus(m.orch))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.status = msg.Kind
		m.lastErr = msg.Err
		return m, listenStatus(m.orch)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		m.orch.Cancel()
		return m, tea.Quit

	case tea.KeyTab:
		text, err := m.orch.Accept()
		if err != nil {
			m.lastErr = err
			return m, nil
		}
		if text != "" && m.store != nil {
			_ = m.store.Record(context.Background(), text, m.buf.CursorOffset())
		}
		return m, nil

	case tea.KeyEsc:
		if err := m.orch.Reject(); err != nil {
			m.orch.Cancel()
		}
		return m, nil

	case tea.KeyCtrlG:
		m.orch.NotifyManualTrigger()
		return m, nil

	case tea.KeyCtrlT:
		m.orch.SetMode(nextMode(m.orch.Mode()))
		return m, nil

	case tea.KeyBackspace:
		m.buf.Backspace()
		m.orch.NotifyKeystroke(trigger.Event{At: time.Now()})
		return m, nil

	case tea.KeyLeft:
		m.buf.SetCursor(m.buf.CursorOffset() - 1)
		m.orch.NotifyKeystroke(trigger.Event{At: time.Now()})
		return m, nil

	case tea.KeyRight:
		m.buf.SetCursor(m.buf.CursorOffset() + 1)
		m.orch.NotifyKeystroke(trigger.Event{At: time.Now()})
		return m, nil

	case tea.KeyEnter:
		return m.typeText("\n"), nil

	case tea.KeySpace:
		return m.typeText(" "), nil

	case tea.KeyRunes:
		return m.typeText(string(msg.Runes)), nil
	}
	return m, nil
}

// typeText inserts user input at the cursor and reports it to the engine.
func (m model) typeText(text string) model {
	m.buf.Type(text)
	m.orch.NotifyKeystroke(trigger.Event{
		At:        time.Now(),
		Text:      text,
		Printable: true,
	})
	return m
}

func nextMode(mode config.Mode) config.Mode {
	switch mode {
	case config.ModeDisabled:
		return config.ModeManualOnly
	case config.ModeManualOnly:
		return config.ModeAutoAssist
	default:
		return config.ModeDisabled
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ghosttype"))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  mode:%s  provider:%s", m.orch.Mode(), m.provName)))
	b.WriteString("\n\n")

	b.WriteString(editorStyle.Width(max(20, m.width-4)).Render(m.renderBuffer()))
	b.WriteString("\n")

	_, _, _, popup, hasPopup := m.surf.snapshot()
	if hasPopup {
		b.WriteString(popup)
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

// renderBuffer splices the ghost overlay into the buffer text at its
// anchor and marks the cursor position.
func (m model) renderBuffer() string {
	content := []rune(m.buf.String())
	cursor := m.buf.CursorOffset()
	ghost, ghostAt, hasGhost, _, _ := m.surf.snapshot()

	var b strings.Builder
	for i := 0; i <= len(content); i++ {
		if hasGhost && i == ghostAt {
			b.WriteString(ghost)
			hasGhost = false
		}
		if i == cursor {
			b.WriteString(cursorStyle.Render(" "))
		}
		if i < len(content) {
			b.WriteRune(content[i])
		}
	}
	if hasGhost {
		// Anchor past the end can happen transiently between a buffer
		// edit and the next status event.
		b.WriteString(ghost)
	}
	return b.String()
}

func (m model) renderStatus() string {
	var state string
	switch m.status {
	case orchestrator.StatusRequesting:
		state = m.spin.View() + " requesting"
	case orchestrator.StatusSuggestionReady:
		state = "suggestion ready (tab accepts, esc rejects)"
	case orchestrator.StatusError:
		if m.lastErr != nil {
			return errStyle.Render("error: " + m.lastErr.Error())
		}
		state = "error"
	default:
		state = "idle"
	}

	st := m.orch.Stats()
	return statusStyle.Render(fmt.Sprintf(
		"%s  ·  issued:%d accepted:%d rejected:%d timeout:%d  ·  ^G trigger  ^T mode  ^C quit",
		state, st.Issued, st.Accepted, st.Rejected, st.TimedOut,
	))
}
