package typing

import "time"

// CursorMarker trails the revealed prefix while a reveal is in progress.
const CursorMarker = "▌"

// Frame is what a surface should show for one instant of a reveal.
type Frame struct {
	Text   string // revealed prefix
	Cursor bool   // draw CursorMarker after Text
}

func (f Frame) String() string {
	if f.Cursor {
		return f.Text + CursorMarker
	}
	return f.Text
}

// Render maps a target and cursor position to a frame. The position is clamped
// to [0, len(target)].
func Render(target []rune, cursor int) Frame {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(target) {
		cursor = len(target)
	}
	return Frame{Text: string(target[:cursor]), Cursor: cursor < len(target)}
}

// Schedule returns a channel that fires once after d. It is the tick primitive
// shared by the Animator and the Cycler; tests substitute a manual one.
type Schedule func(d time.Duration) <-chan time.Time

// RealTime schedules on the wall clock.
func RealTime(d time.Duration) <-chan time.Time {
	return time.After(d)
}
