// Package notify turns store outcomes into user-facing notifications and
// fans them out to subscribers.
package notify

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/me/schedview/internal/store"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is what a user sees after an action.
type Notification struct {
	Level   Level
	Action  store.Action
	PID     int
	Message string
	Time    time.Time
}

// Bus delivers notifications to subscribed channels. Publish never blocks:
// a subscriber whose buffer is full misses the notification.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan<- Notification
	dropped     atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers ch for every future notification.
func (b *Bus) Subscribe(ch chan<- Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, ch)
}

// Unsubscribe removes ch. It does not close it.
func (b *Bus) Unsubscribe(ch chan<- Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends n to every subscriber that has room for it.
func (b *Bus) Publish(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subscribers {
		select {
		case s <- n:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Notifier is a store.Observer that publishes one notification per outcome.
type Notifier struct {
	bus *Bus
}

// NewNotifier creates a notifier publishing on bus.
func NewNotifier(bus *Bus) *Notifier {
	return &Notifier{bus: bus}
}

// Observe implements store.Observer.
func (n *Notifier) Observe(o store.Outcome) {
	n.bus.Publish(FromOutcome(o))
}

// FromOutcome maps an outcome to its notification.
func FromOutcome(o store.Outcome) Notification {
	lvl := LevelSuccess
	if !o.OK() {
		lvl = LevelError
	}
	return Notification{
		Level:   lvl,
		Action:  o.Action,
		PID:     o.PID,
		Message: o.Message,
		Time:    o.At,
	}
}

// LogSink writes every outcome through slog: successes at info, failures at
// error.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink on logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "notify")}
}

// Observe implements store.Observer.
func (s *LogSink) Observe(o store.Outcome) {
	n := FromOutcome(o)
	attrs := []any{"action", n.Action}
	if n.PID != 0 {
		attrs = append(attrs, "pid", n.PID)
	}
	if n.Level == LevelError {
		s.logger.Error(n.Message, attrs...)
		return
	}
	s.logger.Info(n.Message, attrs...)
}
