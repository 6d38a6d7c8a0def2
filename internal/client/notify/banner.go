// internal/client/notify/banner.go
package notify

import (
	"sync"
	"time"
)

// DefaultDismiss is how long a banner stays up.
const DefaultDismiss = 3000 * time.Millisecond

// Level of a banner message.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

// Message is what a banner shows.
type Message struct {
	Level Level
	Text  string
}

// Banner shows one transient message at a time. Showing a new message
// replaces the old one and restarts the timer. Close cancels any pending
// dismissal so nothing fires after the owner is gone.
type Banner struct {
	mu      sync.Mutex
	after   time.Duration
	current *Message
	timer   *time.Timer
	gen     uint64
	closed  bool

	onShow    func(Message)
	onDismiss func(Message)
}

// Option configures a Banner.
type Option func(*Banner)

// WithDismissAfter overrides DefaultDismiss.
func WithDismissAfter(d time.Duration) Option {
	return func(b *Banner) { b.after = d }
}

// OnShow registers a callback run (synchronously) when a message appears.
func OnShow(fn func(Message)) Option {
	return func(b *Banner) { b.onShow = fn }
}

// OnDismiss registers a callback run when a message is auto-dismissed.
func OnDismiss(fn func(Message)) Option {
	return func(b *Banner) { b.onDismiss = fn }
}

// New creates a banner.
func New(opts ...Option) *Banner {
	b := &Banner{after: DefaultDismiss}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Show displays msg at level and schedules its dismissal.
func (b *Banner) Show(level Level, text string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	msg := Message{Level: level, Text: text}
	b.current = &msg
	b.timer = time.AfterFunc(b.after, func() { b.expire(gen) })
	onShow := b.onShow
	b.mu.Unlock()

	if onShow != nil {
		onShow(msg)
	}
}

// Error is Show(Error, ...).
func (b *Banner) Error(text string) { b.Show(Error, text) }

// Success is Show(Success, ...).
func (b *Banner) Success(text string) { b.Show(Success, text) }

func (b *Banner) expire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || b.current == nil {
		b.mu.Unlock()
		return
	}
	msg := *b.current
	b.current = nil
	b.timer = nil
	onDismiss := b.onDismiss
	b.mu.Unlock()

	if onDismiss != nil {
		onDismiss(msg)
	}
}

// Current returns the visible message, if any.
func (b *Banner) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Message{}, false
	}
	return *b.current, true
}

// Dismiss hides the current message immediately.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	b.current = nil
}

// Close stops the pending timer; later Show calls are ignored.
func (b *Banner) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	b.closed = true
	b.current = nil
}
