package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/magicdog/sdk/pkg/types"
)

const maxLogs = 6

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Width(8)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	logStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
)

// lineWriter turns logger output into lines for the log box. Lines are
// dropped while the UI is behind.
type lineWriter struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	lines chan string
}

func newLineWriter(size int) *lineWriter {
	return &lineWriter{lines: make(chan string, size)}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			return len(p), nil
		}
		select {
		case w.lines <- strings.TrimRight(line, "\n"):
		default:
		}
	}
}

type logMsg string

type resultMsg struct {
	label string
	err   error
}

// waitForLog delivers the next log line, or nothing once ctx ends.
func waitForLog(ctx context.Context, lines <-chan string) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			return logMsg(line)
		}
	}
}

type keyboardModel struct {
	ctx      context.Context
	op       *operator
	lines    <-chan string
	logs     []string
	status   string
	failed   bool
	width    int
	quitting bool
}

func newKeyboardModel(ctx context.Context, op *operator, lines <-chan string) keyboardModel {
	return keyboardModel{ctx: ctx, op: op, lines: lines, status: "ready"}
}

func (m *keyboardModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m keyboardModel) run(b binding) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{label: b.label, err: m.op.apply(m.ctx, b)}
	}
}

func (m keyboardModel) Init() tea.Cmd {
	return waitForLog(m.ctx, m.lines)
}

func (m keyboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		b, ok := lookupKey(msg.String())
		if !ok {
			return m, nil
		}
		if b.act == actionQuit {
			m.quitting = true
			return m, tea.Quit
		}
		m.status = b.label + "..."
		m.failed = false
		return m, m.run(b)

	case resultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s: %v", msg.label, msg.err)
			m.failed = true
		} else {
			m.status = msg.label
			m.failed = false
		}
		return m, nil

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctx, m.lines)
	}
	return m, nil
}

func (m keyboardModel) View() string {
	if m.quitting {
		return "Keyboard operator stopped.\n"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("MagicDog Keyboard Operator"))
	sb.WriteString("\n\n")

	for _, b := range bindings {
		if b.key == "space" || b.key == "ctrl+c" {
			continue
		}
		key := b.key
		if key == " " {
			key = "space"
		}
		sb.WriteString(keyStyle.Render(key))
		sb.WriteString(b.label)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(renderJoystick(m.op.joystick()))
	sb.WriteString("\n")
	if m.failed {
		sb.WriteString(errorStyle.Render(m.status))
	} else {
		sb.WriteString(statusStyle.Render(m.status))
	}
	sb.WriteString("\n")

	box := logStyle
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	logLines := statusStyle.Render("no log messages")
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(box.Render(logLines))
	sb.WriteString("\n")
	return sb.String()
}

func renderJoystick(cmd types.JoystickCommand) string {
	return fmt.Sprintf("joystick  left (%+.1f, %+.1f)  right (%+.1f, %+.1f)",
		cmd.LeftXAxis, cmd.LeftYAxis, cmd.RightXAxis, cmd.RightYAxis)
}
