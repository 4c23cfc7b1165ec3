// Package progress records per-session status events emitted while a
// document moves through extraction.
package progress

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Event types emitted by the orchestrator
const (
	EventStarted     = "started"
	EventExtracted   = "text_extracted"
	EventTierStart   = "tier_start"
	EventTierSkipped = "tier_skipped"
	EventTierFailed  = "tier_failed"
	EventCompleted   = "completed"
	EventError       = "error"
)

// DefaultMaxEvents bounds the history kept per session
const DefaultMaxEvents = 1000

// Event is one status update
type Event struct {
	SessionID string         `json:"session_id"`
	Type      string         `json:"event_type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Time      time.Time      `json:"timestamp"`
}

// Notifier receives status updates. Implementations must not block.
type Notifier interface {
	Notify(sessionID, eventType, message string, data map[string]any)
}

// Discard drops every event
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(string, string, string, map[string]any) {}

// Log keeps the event history of every open session in memory and fans new
// events out to subscribers
type Log struct {
	mu        sync.Mutex
	sessions  map[string][]Event
	subs      map[string][]*subscription
	watchers  sync.WaitGroup
	maxEvents int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Log
type Option func(*Log)

// WithMaxEvents bounds the events kept per session; older events are dropped
func WithMaxEvents(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.maxEvents = n
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger mirrors every event to logger at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// NewLog creates an empty log
func NewLog(opts ...Option) *Log {
	l := &Log{
		sessions:  make(map[string][]Event),
		subs:      make(map[string][]*subscription),
		maxEvents: DefaultMaxEvents,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Notify appends an event to the session, creating the session on first use
func (l *Log) Notify(sessionID, eventType, message string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	ev := Event{SessionID: sessionID, Type: eventType, Message: message, Data: data, Time: l.now()}

	l.mu.Lock()
	events := append(l.sessions[sessionID], ev)
	if over := len(events) - l.maxEvents; over > 0 {
		events = append([]Event(nil), events[over:]...)
	}
	l.sessions[sessionID] = events
	for _, sub := range l.subs[sessionID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	l.mu.Unlock()

	if l.logger != nil {
		l.logger.Debug(message, "session", sessionID, "event", eventType)
	}
}

// Events returns a copy of the session's history, oldest first. Unknown
// sessions have no events.
func (l *Log) Events(sessionID string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := l.sessions[sessionID]
	if len(events) == 0 {
		return []Event{}
	}
	return append([]Event(nil), events...)
}

// Sessions lists open session ids in sorted order
func (l *Log) Sessions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.sessions))
	for id := range l.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cleanup forgets a session and closes its subscriptions. It reports
// whether the session existed.
func (l *Log) Cleanup(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.sessions[sessionID]
	delete(l.sessions, sessionID)
	for _, sub := range l.subs[sessionID] {
		sub.close()
	}
	delete(l.subs, sessionID)
	return ok
}

// subscription pairs a subscriber's channel with the signal that stops its
// context watcher
type subscription struct {
	ch   chan Event
	done chan struct{}
}

func (s *subscription) close() {
	close(s.ch)
	close(s.done)
}

// Subscribe streams events added to the session after the call. The channel
// is closed when ctx ends or the session is cleaned up. A subscriber that
// falls more than buffer events behind misses events rather than blocking
// producers.
func (l *Log) Subscribe(ctx context.Context, sessionID string, buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscription{ch: make(chan Event, buffer), done: make(chan struct{})}

	l.mu.Lock()
	l.subs[sessionID] = append(l.subs[sessionID], sub)
	l.mu.Unlock()

	l.watchers.Add(1)
	go func() {
		defer l.watchers.Done()
		select {
		case <-ctx.Done():
			l.unsubscribe(sessionID, sub)
		case <-sub.done:
		}
	}()
	return sub.ch
}

// unsubscribe is a no-op when Cleanup already closed sub
func (l *Log) unsubscribe(sessionID string, sub *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	subs := l.subs[sessionID]
	for i, s := range subs {
		if s == sub {
			l.subs[sessionID] = append(subs[:i], subs[i+1:]...)
			if len(l.subs[sessionID]) == 0 {
				delete(l.subs, sessionID)
			}
			sub.close()
			return
		}
	}
}
