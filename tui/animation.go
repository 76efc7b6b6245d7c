package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"Xiuchatbot/pkg/chat"
)

// RefreshMsg is sent whenever the controller, the animator or the header cycler
// changed the screen.
type RefreshMsg struct{}

// SubmitDoneMsg carries the outcome of one Submit.
type SubmitDoneMsg struct {
	Err error
}

// waitForRefresh blocks until the screen signals a change.
func waitForRefresh(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return RefreshMsg{}
	}
}

// submitCmd runs a send off the event loop; the controller reports progress
// through the screen while it runs.
func submitCmd(ctx context.Context, ctrl *chat.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return SubmitDoneMsg{Err: ctrl.Submit(ctx, text)}
	}
}
