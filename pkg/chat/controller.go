package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"Xiuchatbot/models"
	"Xiuchatbot/pkg/services"
	"Xiuchatbot/pkg/typing"
)

var (
	ErrEmptyPrompt = errors.New("chat: empty prompt")
	ErrBusy        = errors.New("chat: a send is already in flight")
)

const (
	// DefaultNoteTimeout is how long a warning stays before the hint returns.
	DefaultNoteTimeout = 2000 * time.Millisecond
	// DefaultHint is the resting text of the note line.
	DefaultHint = "Perhatian: Jangan spam. Penggunaan berlebihan akan dibatasi untuk mencegah penyalahgunaan."
)

// Note is the single status line under the input.
type Note struct {
	Text    string `json:"text"`
	Warning bool   `json:"warning"`
}

// View is the rendering surface the controller drives. Calls may arrive from
// several goroutines and must not block.
type View interface {
	AppendMessage(m models.Message)
	UpdateMessage(m models.Message)
	RenderFrame(id string, f typing.Frame)
	// SetInputEnabled(true) also restores focus to the input.
	SetInputEnabled(enabled bool)
	SetSkipEnabled(enabled bool)
	ShowNote(n Note)
}

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeMarkup makes text render literally inside HTML.
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

// Controller owns the send lifecycle of one conversation surface.
type Controller struct {
	source      services.ResponseSource
	view        View
	animator    *typing.Animator
	throttle    *ThrottleState
	charDelay   time.Duration
	noteTimeout time.Duration
	escape      func(string) string
	now         func() time.Time

	mu       sync.Mutex
	busy     bool
	messages []models.Message
	noteGen  int
	noteTmr  *time.Timer
	admit    func() (time.Duration, bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithCooldown sets the minimum gap between accepted sends.
func WithCooldown(d time.Duration) Option {
	return func(c *Controller) { c.throttle = NewThrottleState(d) }
}

// WithCharDelay sets the reveal pace per character.
func WithCharDelay(d time.Duration) Option {
	return func(c *Controller) { c.charDelay = d }
}

// WithNoteTimeout sets how long a warning note stays up.
func WithNoteTimeout(d time.Duration) Option {
	return func(c *Controller) { c.noteTimeout = d }
}

// WithEscaper sets how reply text is made literal for the surface.
func WithEscaper(fn func(string) string) Option {
	return func(c *Controller) { c.escape = fn }
}

// WithClock replaces time.Now for throttle and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithAnimator replaces the controller's own animator.
func WithAnimator(a *typing.Animator) Option {
	return func(c *Controller) { c.animator = a }
}

// WithAdmission adds a check that runs after the cooldown and before the send is
// accepted. A refusal is handled like a throttle, with the returned wait.
func WithAdmission(admit func() (time.Duration, bool)) Option {
	return func(c *Controller) { c.admit = admit }
}

func NewController(source services.ResponseSource, view View, opts ...Option) *Controller {
	c := &Controller{
		source:      source,
		view:        view,
		animator:    typing.NewAnimator(),
		throttle:    NewThrottleState(DefaultCooldown),
		charDelay:   typing.DefaultCharDelay,
		noteTimeout: DefaultNoteTimeout,
		escape:      EscapeMarkup,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit sends raw as a prompt. Empty input is ignored with ErrEmptyPrompt, a send
// inside the cooldown is refused with *ThrottleError and a warning note. Source
// failures are shown in the stream and returned. Input is always re-enabled.
func (c *Controller) Submit(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyPrompt
	}
	now := c.now()

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		if wait := c.throttle.Remaining(now); wait > 0 {
			c.warn(wait)
			return &ThrottleError{Remaining: wait}
		}
		return ErrBusy
	}
	if wait := c.throttle.Remaining(now); wait > 0 {
		c.mu.Unlock()
		c.warn(wait)
		return &ThrottleError{Remaining: wait}
	}
	if c.admit != nil {
		if wait, ok := c.admit(); !ok {
			c.mu.Unlock()
			c.warn(wait)
			return &ThrottleError{Remaining: wait}
		}
	}
	c.throttle.Reserve(now)
	c.busy = true
	user := models.NewMessage(models.RoleUser, raw, now)
	user.Rendered = c.escape(raw)
	c.messages = append(c.messages, user)
	c.mu.Unlock()

	c.view.AppendMessage(user)
	c.view.SetInputEnabled(false)
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
		c.view.SetInputEnabled(true)
	}()

	reply, err := c.source.Generate(ctx, raw)
	if err != nil {
		c.fail(err)
		return err
	}
	c.reveal(ctx, reply)
	return nil
}

// Skip jumps the running reveal to its end.
func (c *Controller) Skip() {
	c.animator.Skip()
}

// Messages returns a copy of the conversation so far.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

// Count is the number of messages shown.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Busy reports whether a send is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Close stops the pending note timer and any running reveal.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.noteTmr != nil {
		c.noteTmr.Stop()
	}
	c.noteGen++
	c.mu.Unlock()
	c.animator.Skip()
}

func (c *Controller) fail(err error) {
	text := services.CommunicationMessage
	var ce *services.CommunicationError
	if errors.As(err, &ce) {
		text = ce.Error()
	} else {
		log.Printf("[chat] unexpected source error: %v", err)
	}
	now := c.now()
	bot := models.NewMessage(models.RoleBot, text, now)
	bot.Rendered = text
	bot.State = models.StateErrored
	bot.CompletedAt = now

	c.mu.Lock()
	c.messages = append(c.messages, bot)
	c.mu.Unlock()
	c.view.AppendMessage(bot)
}

func (c *Controller) reveal(ctx context.Context, reply string) {
	bot := models.NewMessage(models.RoleBot, reply, c.now())
	bot.State = models.StatePending
	c.mu.Lock()
	c.messages = append(c.messages, bot)
	c.mu.Unlock()
	c.view.AppendMessage(bot)

	escaped := c.escape(reply)
	c.view.UpdateMessage(c.update(bot.ID, func(m *models.Message) { m.State = models.StateTyping }))
	c.view.SetSkipEnabled(true)

	done, err := c.animator.Start(ctx, escaped, c.charDelay, func(f typing.Frame) {
		c.view.RenderFrame(bot.ID, f)
	})
	if err != nil {
		log.Printf("[chat] reveal not started: %v", err)
		c.view.RenderFrame(bot.ID, typing.Frame{Text: escaped})
	} else {
		<-done
	}
	c.view.SetSkipEnabled(false)

	c.view.UpdateMessage(c.update(bot.ID, func(m *models.Message) {
		m.State = models.StateComplete
		m.Rendered = escaped
		m.CompletedAt = c.now()
	}))
}

// update mutates the stored message with id and returns the new copy.
func (c *Controller) update(id string, fn func(m *models.Message)) models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			fn(&c.messages[i])
			return c.messages[i]
		}
	}
	return models.Message{ID: id}
}

func (c *Controller) warn(wait time.Duration) {
	c.showNote(Note{
		Text:    fmt.Sprintf("Perhatian: Tunggu %ss sebelum mengirim lagi.", WaitSeconds(wait)),
		Warning: true,
	})
}

// showNote displays n and schedules the hint to come back after the note timeout.
// A newer note cancels the older restore.
func (c *Controller) showNote(n Note) {
	c.view.ShowNote(n)

	c.mu.Lock()
	c.noteGen++
	gen := c.noteGen
	if c.noteTmr != nil {
		c.noteTmr.Stop()
	}
	c.noteTmr = time.AfterFunc(c.noteTimeout, func() {
		c.mu.Lock()
		current := gen == c.noteGen
		c.mu.Unlock()
		if current {
			c.view.ShowNote(Note{Text: DefaultHint})
		}
	})
	c.mu.Unlock()
}
