package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"Xiuchatbot/models"
	"Xiuchatbot/pkg/chat"
	"Xiuchatbot/pkg/typing"
)

// Phrases cycled in the header.
var Phrases = []string{
	"Hai, aku Xiuchatbot 👋",
	"Tanya apa aja ke aku!",
	"Aku siap bantu keseharianmu 💡",
}

// screen is the chat.View for the terminal. Controller and animator goroutines
// write here; the bubbletea loop reads a snapshot after each refresh signal.
type screen struct {
	mu           sync.Mutex
	messages     []models.Message
	frames       map[string]typing.Frame
	inputEnabled bool
	skipEnabled  bool
	note         chat.Note
	header       string

	refresh chan struct{}
}

func newScreen() *screen {
	return &screen{
		frames:       make(map[string]typing.Frame),
		inputEnabled: true,
		note:         chat.Note{Text: chat.DefaultHint},
		header:       Phrases[0],
		refresh:      make(chan struct{}, 1),
	}
}

// notify wakes the event loop without ever blocking the caller.
func (s *screen) notify() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func (s *screen) AppendMessage(m models.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	s.notify()
}

func (s *screen) UpdateMessage(m models.Message) {
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == m.ID {
			s.messages[i] = m
			break
		}
	}
	if m.Final() {
		delete(s.frames, m.ID)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *screen) RenderFrame(id string, f typing.Frame) {
	s.mu.Lock()
	s.frames[id] = f
	s.mu.Unlock()
	s.notify()
}

func (s *screen) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	s.inputEnabled = enabled
	s.mu.Unlock()
	s.notify()
}

func (s *screen) SetSkipEnabled(enabled bool) {
	s.mu.Lock()
	s.skipEnabled = enabled
	s.mu.Unlock()
	s.notify()
}

func (s *screen) ShowNote(n chat.Note) {
	s.mu.Lock()
	s.note = n
	s.mu.Unlock()
	s.notify()
}

func (s *screen) setHeader(text string) {
	s.mu.Lock()
	s.header = text
	s.mu.Unlock()
	s.notify()
}

// snapshot is an immutable copy of the screen for one View call.
type snapshot struct {
	messages     []models.Message
	frames       map[string]typing.Frame
	inputEnabled bool
	skipEnabled  bool
	note         chat.Note
	header       string
}

func (s *screen) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := make(map[string]typing.Frame, len(s.frames))
	for k, v := range s.frames {
		frames[k] = v
	}
	return snapshot{
		messages:     append([]models.Message(nil), s.messages...),
		frames:       frames,
		inputEnabled: s.inputEnabled,
		skipEnabled:  s.skipEnabled,
		note:         s.note,
		header:       s.header,
	}
}

// Model is the bubbletea model of the chat widget.
type Model struct {
	ctx      context.Context
	ctrl     *chat.Controller
	screen   *screen
	input    textinput.Model
	viewport viewport.Model
	state    snapshot
	width    int
	height   int
	ready    bool
	quitting bool
}

func newModel(ctx context.Context, ctrl *chat.Controller, s *screen) Model {
	ti := textinput.New()
	ti.Placeholder = "Ketik pesan..."
	ti.CharLimit = 2000
	ti.Prompt = "› "
	ti.Focus()

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		screen:   s,
		input:    ti,
		viewport: viewport.New(80, 20),
		state:    s.snapshot(),
		width:    80,
		height:   30,
	}
}
