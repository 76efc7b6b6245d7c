package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"Xiuchatbot/pkg/chat"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForRefresh(m.screen.refresh))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.syncContent()
		return m, nil

	case RefreshMsg:
		m.state = m.screen.snapshot()
		cmd := m.syncInput()
		m.syncContent()
		return m, tea.Batch(cmd, waitForRefresh(m.screen.refresh))

	case SubmitDoneMsg:
		// a throttled send keeps its text so the user can retry it
		var te *chat.ThrottleError
		if !errors.As(msg.Err, &te) {
			m.input.SetValue("")
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		m.ctrl.Close()
		return m, tea.Quit

	case "tab", "ctrl+s":
		if m.state.skipEnabled {
			m.ctrl.Skip()
		}
		return m, nil

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		if !m.state.inputEnabled {
			return m, nil
		}
		return m, submitCmd(m.ctx, m.ctrl, m.input.Value())
	}

	if !m.state.inputEnabled {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// syncInput mirrors the controller's enable/disable onto the text field; enabling
// restores focus. An accepted send disables the field and empties it.
func (m *Model) syncInput() tea.Cmd {
	if m.state.inputEnabled && !m.input.Focused() {
		return m.input.Focus()
	}
	if !m.state.inputEnabled && m.input.Focused() {
		m.input.Blur()
		m.input.SetValue("")
	}
	return nil
}

func (m *Model) resize() {
	w := max(m.width-2, 20)
	h := max(m.height-chromeHeight, 3)
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = max(w-6, 10)
}

func (m *Model) syncContent() {
	m.viewport.SetContent(renderMessages(m.state, m.viewport.Width))
	m.viewport.GotoBottom()
}
