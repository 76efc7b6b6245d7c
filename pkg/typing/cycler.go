package typing

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultCyclerSpeed is the typing interval of the header phrase cycler.
	DefaultCyclerSpeed = 60 * time.Millisecond
	// HoldPause is how long a fully typed phrase stays before deletion starts.
	HoldPause = 2000 * time.Millisecond
	// NextPhrasePause separates a deleted phrase from the next one.
	NextPhrasePause = 1000 * time.Millisecond
)

var ErrNoPhrases = errors.New("typing: cycler needs at least one non-empty phrase")

// Cycler loops over phrases: type, hold, delete at double speed, pause, next.
type Cycler struct {
	phrases  [][]rune
	speed    time.Duration
	schedule Schedule

	phrase   int
	char     int
	deleting bool
}

// NewCycler builds a cycler; empty phrases are dropped. A nil schedule uses the wall clock.
func NewCycler(phrases []string, speed time.Duration, schedule Schedule) (*Cycler, error) {
	c := &Cycler{speed: speed, schedule: schedule}
	for _, p := range phrases {
		if p != "" {
			c.phrases = append(c.phrases, []rune(p))
		}
	}
	if len(c.phrases) == 0 {
		return nil, ErrNoPhrases
	}
	if c.speed <= 0 {
		c.speed = DefaultCyclerSpeed
	}
	if c.schedule == nil {
		c.schedule = RealTime
	}
	return c, nil
}

// Step advances one character and returns the text to show and the wait before
// the next step.
func (c *Cycler) Step() (string, time.Duration) {
	cur := c.phrases[c.phrase]
	if c.deleting {
		c.char--
		text := string(cur[:c.char])
		if c.char == 0 {
			c.deleting = false
			c.phrase = (c.phrase + 1) % len(c.phrases)
			return text, NextPhrasePause
		}
		return text, c.speed / 2
	}

	c.char++
	text := string(cur[:c.char])
	if c.char == len(cur) {
		c.deleting = true
		return text, HoldPause
	}
	return text, c.speed
}

// Run drives Step until ctx is done, handing every text to render.
func (c *Cycler) Run(ctx context.Context, render func(string)) error {
	for {
		text, wait := c.Step()
		render(text)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.schedule(wait):
		}
	}
}
