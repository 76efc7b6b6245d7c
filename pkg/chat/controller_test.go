package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Xiuchatbot/models"
	"Xiuchatbot/pkg/services"
	"Xiuchatbot/pkg/typing"
)

// recordingView keeps every call the controller makes.
type recordingView struct {
	mu       sync.Mutex
	appended []models.Message
	updated  []models.Message
	frames   []string
	input    []bool
	skip     []bool
	notes    []Note
}

func (v *recordingView) AppendMessage(m models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.appended = append(v.appended, m)
}

func (v *recordingView) UpdateMessage(m models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updated = append(v.updated, m)
}

func (v *recordingView) RenderFrame(_ string, f typing.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames = append(v.frames, f.Text)
}

func (v *recordingView) SetInputEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input = append(v.input, enabled)
}

func (v *recordingView) SetSkipEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.skip = append(v.skip, enabled)
}

func (v *recordingView) ShowNote(n Note) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notes = append(v.notes, n)
}

func (v *recordingView) snapshot() recordingView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return recordingView{
		appended: append([]models.Message(nil), v.appended...),
		updated:  append([]models.Message(nil), v.updated...),
		frames:   append([]string(nil), v.frames...),
		input:    append([]bool(nil), v.input...),
		skip:     append([]bool(nil), v.skip...),
		notes:    append([]Note(nil), v.notes...),
	}
}

type stubSource struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	block   chan struct{}
}

func (s *stubSource) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	return s.reply, s.err
}

func (s *stubSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// fakeClock is a settable wall clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestController(src services.ResponseSource, v View, clock *fakeClock, opts ...Option) *Controller {
	base := []Option{
		WithClock(clock.now),
		WithCharDelay(time.Millisecond),
		WithNoteTimeout(30 * time.Millisecond),
	}
	return NewController(src, v, append(base, opts...)...)
}

func TestSubmitScenarioHalo(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: "Hai!"}
	clock := &fakeClock{t: time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)}
	c := newTestController(src, view, clock)

	require.NoError(t, c.Submit(context.Background(), "Halo"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, models.RoleUser, msgs[0].Role)
	require.Equal(t, "Halo", msgs[0].Text)
	require.Empty(t, msgs[0].State)
	require.Equal(t, models.RoleBot, msgs[1].Role)
	require.Equal(t, "Hai!", msgs[1].Text)
	require.Equal(t, models.StateComplete, msgs[1].State)
	require.Equal(t, "Hai!", msgs[1].Rendered)
	require.False(t, msgs[1].CompletedAt.IsZero())

	got := view.snapshot()
	require.Equal(t, []string{"", "H", "Ha", "Hai", "Hai!"}, got.frames)
	require.Len(t, got.appended, 2)
	require.Equal(t, models.StatePending, got.appended[1].State)
	require.Equal(t, []bool{false, true}, got.input)
	require.Equal(t, []bool{true, false}, got.skip)
	require.Equal(t, models.StateTyping, got.updated[0].State)
	require.Equal(t, models.StateComplete, got.updated[len(got.updated)-1].State)
	require.Equal(t, []string{"Halo"}, src.prompts)
	require.Equal(t, 2, c.Count())
	require.False(t, c.Busy())
}

func TestSubmitIgnoresEmpty(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: "x"}
	clock := &fakeClock{t: time.Now()}
	c := newTestController(src, view, clock)

	for _, raw := range []string{"", "   ", "\n\t"} {
		require.ErrorIs(t, c.Submit(context.Background(), raw), ErrEmptyPrompt)
	}
	require.Zero(t, src.calls())
	require.Zero(t, c.Count())
	got := view.snapshot()
	require.Empty(t, got.notes)
	require.Empty(t, got.input)
	require.Zero(t, c.throttle.Remaining(clock.now()), "ignored input does not start a cooldown")
}

func TestSubmitThrottle(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: "ok"}
	clock := &fakeClock{t: time.Now()}
	c := newTestController(src, view, clock)

	require.NoError(t, c.Submit(context.Background(), "satu"))
	clock.advance(300 * time.Millisecond)

	err := c.Submit(context.Background(), "dua")
	var te *ThrottleError
	require.ErrorAs(t, err, &te)
	require.Equal(t, 1200*time.Millisecond, te.Remaining)
	require.Equal(t, 2, c.Count(), "no message for the rejected send")
	require.Equal(t, 1, src.calls())

	notes := view.snapshot().notes
	require.Equal(t, Note{Text: "Perhatian: Tunggu 1.2s sebelum mengirim lagi.", Warning: true}, notes[0])

	// warning expires back to the hint
	require.Eventually(t, func() bool {
		n := view.snapshot().notes
		return len(n) == 2 && n[1] == Note{Text: DefaultHint}
	}, time.Second, 5*time.Millisecond)

	clock.advance(1200 * time.Millisecond)
	require.NoError(t, c.Submit(context.Background(), "tiga"))
	require.Equal(t, 4, c.Count())
}

func TestSubmitAdmissionRefused(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: "ok"}
	clock := &fakeClock{t: time.Now()}
	allow := false
	c := newTestController(src, view, clock, WithAdmission(func() (time.Duration, bool) {
		return 400 * time.Millisecond, allow
	}))

	err := c.Submit(context.Background(), "Halo")
	var te *ThrottleError
	require.ErrorAs(t, err, &te)
	require.Equal(t, 400*time.Millisecond, te.Remaining)
	require.Zero(t, src.calls())
	require.Zero(t, c.Count())
	require.Zero(t, c.throttle.Remaining(clock.now()), "refused send does not start a cooldown")
	require.Equal(t, Note{Text: "Perhatian: Tunggu 0.4s sebelum mengirim lagi.", Warning: true}, view.snapshot().notes[0])

	allow = true
	require.NoError(t, c.Submit(context.Background(), "Halo"))
	require.Equal(t, 1, src.calls())
}

func TestSubmitDuringInFlightIsThrottled(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: "ok", block: make(chan struct{})}
	clock := &fakeClock{t: time.Now()}
	c := newTestController(src, view, clock)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Submit(context.Background(), "satu") }()
	require.Eventually(t, func() bool { return src.calls() == 1 }, time.Second, time.Millisecond)

	clock.advance(100 * time.Millisecond)
	require.ErrorAs(t, c.Submit(context.Background(), "dua"), new(*ThrottleError))

	clock.advance(2 * time.Second)
	require.ErrorIs(t, c.Submit(context.Background(), "tiga"), ErrBusy)

	close(src.block)
	require.NoError(t, <-errCh)
	require.Equal(t, 1, src.calls())
	require.Equal(t, 2, c.Count())
}

func TestSubmitConcurrentClicksPassOnce(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: "ok"}
	c := newTestController(src, view, &fakeClock{t: time.Now()})

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Submit(context.Background(), "spam")
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, 1, src.calls())
}

func TestSubmitSourceFailure(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{err: &services.CommunicationError{Err: errors.New("dial tcp: refused")}}
	c := newTestController(src, view, &fakeClock{t: time.Now()})

	err := c.Submit(context.Background(), "Halo")
	require.ErrorAs(t, err, new(*services.CommunicationError))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	bot := msgs[1]
	require.Equal(t, models.RoleBot, bot.Role)
	require.Equal(t, models.StateErrored, bot.State)
	require.Equal(t, services.CommunicationMessage, bot.Text)

	got := view.snapshot()
	require.Empty(t, got.frames, "errors are not animated")
	require.Empty(t, got.skip)
	require.Equal(t, []bool{false, true}, got.input, "input re-enabled")
	require.False(t, c.Busy())
}

func TestSubmitUnexpectedErrorIsNotLeaked(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{err: errors.New("status 500: stack trace here")}
	c := newTestController(src, view, &fakeClock{t: time.Now()})

	require.Error(t, c.Submit(context.Background(), "Halo"))
	require.Equal(t, services.CommunicationMessage, c.Messages()[1].Text)
}

func TestSubmitEscapesReplyOnce(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: `<b>"Tom" & 'Jerry'</b>`}
	c := newTestController(src, view, &fakeClock{t: time.Now()})

	require.NoError(t, c.Submit(context.Background(), "Halo"))
	want := "&lt;b&gt;&quot;Tom&quot; &amp; &#039;Jerry&#039;&lt;/b&gt;"
	bot := c.Messages()[1]
	require.Equal(t, want, bot.Rendered)
	require.Equal(t, `<b>"Tom" & 'Jerry'</b>`, bot.Text)

	frames := view.snapshot().frames
	require.Equal(t, want, frames[len(frames)-1])
	require.Len(t, frames, len([]rune(want))+1)
}

func TestSkipDuringReveal(t *testing.T) {
	view := &recordingView{}
	src := &stubSource{reply: "Aku siap bantu keseharianmu"}
	clock := &fakeClock{t: time.Now()}
	c := newTestController(src, view, clock, WithCharDelay(time.Hour))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Submit(context.Background(), "Halo") }()

	require.Eventually(t, func() bool {
		s := view.snapshot().skip
		return len(s) == 1 && s[0]
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return len(view.snapshot().frames) == 1 }, time.Second, time.Millisecond)

	c.Skip()
	require.NoError(t, <-errCh)

	got := view.snapshot()
	require.Equal(t, []string{"", "Aku siap bantu keseharianmu"}, got.frames)
	require.Equal(t, models.StateComplete, c.Messages()[1].State)
	require.Equal(t, []bool{true, false}, got.skip)
}

func TestWaitSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		1500 * time.Millisecond: "1.5",
		1201 * time.Millisecond: "1.3",
		1000 * time.Millisecond: "1",
		1 * time.Millisecond:    "0.1",
		99 * time.Millisecond:   "0.1",
	}
	for d, want := range cases {
		require.Equal(t, want, WaitSeconds(d), d.String())
	}
}

func TestEscapeMarkup(t *testing.T) {
	require.Equal(t, "a &amp;&lt;&gt;&quot;&#039; b", EscapeMarkup(`a &<>"' b`))
	require.Equal(t, "&amp;amp;", EscapeMarkup("&amp;"))
}
