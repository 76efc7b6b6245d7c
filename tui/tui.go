package tui

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"Xiuchatbot/pkg/chat"
	"Xiuchatbot/pkg/services"
	"Xiuchatbot/pkg/typing"
)

// Run starts the chat widget against source until the user quits.
func Run(source services.ResponseSource, opts ...chat.Option) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newScreen()
	// terminal text is made literal by dropping escape sequences
	opts = append([]chat.Option{chat.WithEscaper(ansi.Strip)}, opts...)
	ctrl := chat.NewController(source, s, opts...)
	defer ctrl.Close()

	cycler, err := typing.NewCycler(Phrases, typing.DefaultCyclerSpeed, nil)
	if err != nil {
		return err
	}
	go func() {
		if err := cycler.Run(ctx, s.setHeader); err != nil && ctx.Err() == nil {
			log.Printf("[tui] header cycler stopped: %v", err)
		}
	}()

	p := tea.NewProgram(newModel(ctx, ctrl, s), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
