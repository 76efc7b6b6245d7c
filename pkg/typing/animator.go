package typing

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCharDelay is the per-character interval of live chat replies.
const DefaultCharDelay = 18 * time.Millisecond

type Status int

const (
	StatusRunning Status = iota
	StatusFinished
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusSkipped:
		return "skipped"
	}
	return "unknown"
}

var ErrBusy = errors.New("typing: a session is already running")

type session struct {
	target []rune
	cursor int
	status Status
	render func(Frame)
	done   chan Status
	stop   chan struct{}

	// held across state change + render so frames reach the surface in cursor order
	renderMu sync.Mutex
}

// Animator reveals text one rune per tick. At most one session runs at a time.
type Animator struct {
	mu       sync.Mutex
	active   *session
	schedule Schedule
}

type Option func(*Animator)

// WithSchedule replaces the wall-clock tick source.
func WithSchedule(s Schedule) Option {
	return func(a *Animator) { a.schedule = s }
}

func NewAnimator(opts ...Option) *Animator {
	a := &Animator{schedule: RealTime}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Start begins revealing target, calling render with every frame. target must
// already be escaped for its surface. The returned channel receives exactly one
// status when the session ends. render must not block or call back into the Animator.
func (a *Animator) Start(ctx context.Context, target string, charDelay time.Duration, render func(Frame)) (<-chan Status, error) {
	if charDelay <= 0 {
		charDelay = DefaultCharDelay
	}
	if render == nil {
		render = func(Frame) {}
	}
	s := &session{
		target: []rune(target),
		status: StatusRunning,
		render: render,
		done:   make(chan Status, 1),
		stop:   make(chan struct{}),
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	a.mu.Lock()
	if a.active != nil {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	if len(s.target) == 0 {
		s.status = StatusFinished
		a.mu.Unlock()
		render(Frame{})
		s.done <- StatusFinished
		return s.done, nil
	}
	a.active = s
	a.mu.Unlock()

	render(Render(s.target, 0))
	go a.run(ctx, s, charDelay)
	return s.done, nil
}

// Skip reveals the rest of the running session at once. No-op when idle.
func (a *Animator) Skip() {
	a.mu.Lock()
	s := a.active
	a.mu.Unlock()
	if s == nil {
		return
	}
	a.finish(s, StatusSkipped)
}

// Running reports whether a session is in progress.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active != nil
}

func (a *Animator) run(ctx context.Context, s *session, delay time.Duration) {
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			a.finish(s, StatusSkipped)
			return
		case <-a.schedule(delay):
			if a.advance(s) {
				return
			}
		}
	}
}

// advance reveals one rune and reports whether the session ended.
func (a *Animator) advance(s *session) bool {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	a.mu.Lock()
	if s.status != StatusRunning {
		a.mu.Unlock()
		return true
	}
	s.cursor++
	frame := Render(s.target, s.cursor)
	last := s.cursor >= len(s.target)
	if last {
		s.status = StatusFinished
		a.active = nil
	}
	a.mu.Unlock()

	s.render(frame)
	if last {
		s.done <- StatusFinished
	}
	return last
}

func (a *Animator) finish(s *session, status Status) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	a.mu.Lock()
	if s.status != StatusRunning {
		a.mu.Unlock()
		return
	}
	s.status = status
	s.cursor = len(s.target)
	if a.active == s {
		a.active = nil
	}
	a.mu.Unlock()

	close(s.stop)
	s.render(Render(s.target, s.cursor))
	s.done <- status
}
