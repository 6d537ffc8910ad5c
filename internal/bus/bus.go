package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Bus delivers actions to subscriptions.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	logger *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// New creates a Bus.
func New(opts ...Option) *Bus {
	b := &Bus{subs: make(map[uint64]*Subscription)}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Subscribe registers a subscription receiving every action accepted by
// pred that is published after Subscribe returns. The subscription must
// be closed by the caller.
func (b *Bus) Subscribe(pred Predicate) *Subscription {
	s := &Subscription{
		bus:  b,
		pred: pred,
		out:  make(chan Action),
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.closed = true
		close(s.done)
		close(s.out)
		return s
	}
	s.id = b.nextID
	b.nextID++
	b.subs[s.id] = s
	go s.pump()
	return s
}

// Publish delivers the action to all matching subscriptions. It never
// blocks on consumers. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(a Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Debug("action published on closed bus", "action", a.Name, "tile", a.Tile)
		return
	}
	for _, s := range b.subs {
		if s.pred(a) {
			s.enqueue(a)
		}
	}
}

// WaitFor blocks until an action accepted by pred is published, the
// timeout elapses or ctx ends. Only actions published after the call are
// considered; use Subscribe and Subscription.Wait when the action may be
// published before the caller gets to wait.
func (b *Bus) WaitFor(ctx context.Context, pred Predicate, timeout time.Duration) (Action, error) {
	s := b.Subscribe(pred)
	defer s.Close()
	return s.Wait(ctx, timeout)
}

// Close closes the bus and all its subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uint64]*Subscription)
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

// NumSubscriptions returns the number of open subscriptions.
func (b *Bus) NumSubscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}
