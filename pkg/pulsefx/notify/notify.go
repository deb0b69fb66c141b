// Package notify distributes engine notices (fired effects, breaker state
// changes, session resets) to interested subscribers.
//
// Publishing is non-blocking: a slow subscriber drops notices rather than
// stalling the engine. Nothing here is fatal; a notice is advisory.
package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies a notice.
type Kind string

// Notice kinds.
const (
	KindEffectFired        Kind = "effect_fired"
	KindComponentDisabled  Kind = "component_disabled"
	KindComponentRecovered Kind = "component_recovered"
	KindSessionReset       Kind = "session_reset"
)

// Notice is one advisory engine event.
type Notice struct {
	// Kind classifies the notice.
	Kind Kind

	// Component names the effect component, when relevant.
	Component string

	// EventType names the event type, when relevant.
	EventType string

	// Message is a human-readable description, suitable for a status bar.
	Message string

	// Time is when the notice was created.
	Time time.Time
}

// Config configures a Notifier.
type Config struct {
	// BufferSize is the channel buffer per subscription. Default: 64.
	BufferSize int

	// OnDrop is called when a notice is dropped because a subscriber's
	// buffer is full.
	OnDrop func(n Notice)
}

// DefaultConfig provides reasonable defaults.
var DefaultConfig = Config{
	BufferSize: 64,
}

// Notifier fans notices out to subscribers.
type Notifier struct {
	config Config

	mu     sync.RWMutex
	subs   map[int64]*Subscription
	nextID atomic.Int64
	closed atomic.Bool
}

// Subscription is one subscriber's notice stream.
type Subscription struct {
	id       int64
	kinds    map[Kind]bool // empty = all kinds
	ch       chan Notice
	notifier *Notifier
	once     sync.Once
}

// New creates a notifier.
func New(config Config) *Notifier {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig.BufferSize
	}
	return &Notifier{
		config: config,
		subs:   make(map[int64]*Subscription),
	}
}

// Subscribe creates a subscription for the given kinds.
// No kinds means all notices. Returns nil if the notifier is closed.
func (n *Notifier) Subscribe(kinds ...Kind) *Subscription {
	if n.closed.Load() {
		return nil
	}

	kindSet := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	sub := &Subscription{
		id:       n.nextID.Add(1),
		kinds:    kindSet,
		ch:       make(chan Notice, n.config.BufferSize),
		notifier: n,
	}

	n.mu.Lock()
	n.subs[sub.id] = sub
	n.mu.Unlock()

	return sub
}

// Publish delivers a notice to all matching subscribers without blocking.
func (n *Notifier) Publish(notice Notice) {
	if n.closed.Load() {
		return
	}
	if notice.Time.IsZero() {
		notice.Time = time.Now()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, sub := range n.subs {
		if len(sub.kinds) > 0 && !sub.kinds[notice.Kind] {
			continue
		}
		select {
		case sub.ch <- notice:
		default:
			if n.config.OnDrop != nil {
				n.config.OnDrop(notice)
			}
		}
	}
}

// Close shuts down the notifier and all subscriptions.
// Safe to call multiple times.
func (n *Notifier) Close() {
	if !n.closed.CompareAndSwap(false, true) {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for id, sub := range n.subs {
		sub.once.Do(func() { close(sub.ch) })
		delete(n.subs, id)
	}
}

// C returns the subscription's notice channel. The channel closes when the
// subscription is removed or the notifier closes.
func (s *Subscription) C() <-chan Notice {
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel.
// Safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}

	s.notifier.mu.Lock()
	delete(s.notifier.subs, s.id)
	s.notifier.mu.Unlock()

	s.once.Do(func() { close(s.ch) })
}
