package bus

import (
	"context"
	"sync"
	"time"
)

// Subscription is an unbounded, ordered queue of the actions accepted by
// its predicate.
type Subscription struct {
	id   uint64
	bus  *Bus
	pred Predicate

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Action
	closed bool

	out  chan Action
	done chan struct{}
}

// C returns the channel delivering the actions. It is closed once the
// subscription is closed.
func (s *Subscription) C() <-chan Action {
	return s.out
}

// Wait returns the next action. A non-positive timeout waits until ctx
// ends.
func (s *Subscription) Wait(ctx context.Context, timeout time.Duration) (Action, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case a, ok := <-s.out:
		if !ok {
			return Action{}, ErrClosed
		}
		return a, nil
	case <-timer:
		return Action{}, ErrWaitTimeout
	case <-ctx.Done():
		return Action{}, ctx.Err()
	}
}

// Close removes the subscription from the bus. Queued actions are
// discarded.
func (s *Subscription) Close() {
	if s.close() {
		s.bus.unsubscribe(s.id)
	}
}

func (s *Subscription) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.queue = nil
	close(s.done)
	s.cond.Broadcast()
	return true
}

func (s *Subscription) enqueue(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, a)
	s.cond.Signal()
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		a := s.queue[0]
		s.queue[0] = Action{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- a:
		case <-s.done:
			return
		}
	}
}
