// Package console implements the process-wide output channels that sandboxed
// code writes to, and scoped capture of everything emitted on them.
//
// A Console holds four channels (info, warn, error, trace). Code running in
// the sandbox never holds a channel directly; it calls Emit, which resolves
// the channel currently installed. A capture Session temporarily replaces
// all four channels with tees that record each emission and forward it to
// the channel they replaced, and puts the originals back when it ends.
//
// Only one Session may be active on a Console at a time. Begin blocks until
// the previous Session has ended, so concurrent local runs are serialized
// rather than interleaving their captures.
package console

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Channel identifies one of the four emission channels.
type Channel string

const (
	Info  Channel = "info"
	Warn  Channel = "warn"
	Error Channel = "error"
	Trace Channel = "trace"
)

// Func is a channel sink.
type Func func(args ...any)

// Channels is the set of sinks installed on a Console.
type Channels struct {
	Info  Func
	Warn  Func
	Error Func
	Trace Func
}

func (c Channels) get(ch Channel) Func {
	switch ch {
	case Warn:
		return c.Warn
	case Error:
		return c.Error
	case Trace:
		return c.Trace
	default:
		return c.Info
	}
}

func (c Channels) withDefaults() Channels {
	nop := func(...any) {}
	if c.Info == nil {
		c.Info = nop
	}
	if c.Warn == nil {
		c.Warn = nop
	}
	if c.Error == nil {
		c.Error = nop
	}
	if c.Trace == nil {
		c.Trace = nop
	}
	return c
}

// Slog returns channels that write to logger at the matching level.
// Trace maps to debug.
func Slog(logger *slog.Logger) Channels {
	if logger == nil {
		logger = slog.Default()
	}
	emit := func(level slog.Level) Func {
		return func(args ...any) {
			logger.Log(context.Background(), level, Format(args...), "source", "sandbox")
		}
	}
	return Channels{
		Info:  emit(slog.LevelInfo),
		Warn:  emit(slog.LevelWarn),
		Error: emit(slog.LevelError),
		Trace: emit(slog.LevelDebug),
	}
}

// Console is a set of ambient channels shared by every local run.
type Console struct {
	mu      sync.RWMutex
	current Channels

	// held from Begin until End
	capture sync.Mutex
}

// New returns a Console with base installed. Nil sinks discard.
func New(base Channels) *Console {
	return &Console{current: base.withDefaults()}
}

// Default is the process-wide console, forwarding to slog.Default().
var Default = New(Slog(nil))

// Channels returns the currently installed channels.
func (c *Console) Channels() Channels {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Set replaces the installed channels. It waits for any active capture to
// end so the capture cannot restore over it.
func (c *Console) Set(ch Channels) {
	c.capture.Lock()
	defer c.capture.Unlock()
	c.install(ch.withDefaults())
}

func (c *Console) install(ch Channels) {
	c.mu.Lock()
	c.current = ch
	c.mu.Unlock()
}

// Emit sends args to the channel currently installed for ch.
func (c *Console) Emit(ch Channel, args ...any) {
	c.Channels().get(ch)(args...)
}

// Emission is one captured write.
type Emission struct {
	Channel Channel
	Text    string
}

// Session is an active capture. End must be called exactly once it is no
// longer needed; calling it again is a no-op.
type Session struct {
	c     *Console
	saved Channels

	mu        sync.Mutex
	emissions []Emission
	ended     bool
	once      sync.Once
}

// Begin installs capturing tees on all four channels.
func (c *Console) Begin() *Session {
	c.capture.Lock()

	s := &Session{c: c, saved: c.Channels()}
	c.install(Channels{
		Info:  s.tee(Info, s.saved.Info),
		Warn:  s.tee(Warn, s.saved.Warn),
		Error: s.tee(Error, s.saved.Error),
		Trace: s.tee(Trace, s.saved.Trace),
	})
	return s
}

func (s *Session) tee(ch Channel, next Func) Func {
	return func(args ...any) {
		s.mu.Lock()
		if !s.ended {
			s.emissions = append(s.emissions, Emission{Channel: ch, Text: Format(args...)})
		}
		s.mu.Unlock()
		next(args...)
	}
}

// End restores the channels that were installed when the session began and
// returns the emissions in the order they happened.
func (s *Session) End() []Emission {
	s.once.Do(func() {
		s.c.install(s.saved)
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()
		s.c.capture.Unlock()
	})
	return s.Emissions()
}

// Emissions returns a copy of what has been captured so far.
func (s *Session) Emissions() []Emission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Emission(nil), s.emissions...)
}

// Capture runs fn with all channels of c captured. The original channels
// are restored before Capture returns, whether fn returns normally, returns
// an error, or panics; a panic is re-raised after restoration.
func Capture[T any](c *Console, fn func() (T, error)) (T, []Emission, error) {
	s := c.Begin()
	defer s.End()

	v, err := fn()
	return v, s.End(), err
}

// Labels prefix rendered lines per channel. Info is unlabelled.
var Labels = map[Channel]string{
	Error: "❌ Error: ",
	Warn:  "⚠️  Warning: ",
	Trace: "🔍 Trace: ",
}

// Render joins emissions into display text, one per line, labelled by
// channel.
func Render(emissions []Emission) string {
	lines := make([]string, 0, len(emissions))
	for _, e := range emissions {
		lines = append(lines, Labels[e.Channel]+e.Text)
	}
	return strings.Join(lines, "\n")
}
