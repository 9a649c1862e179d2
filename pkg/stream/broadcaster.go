package stream

import "sync"

// Broadcaster fans every published value out to all live subscribers.
// Nothing is replayed: a subscriber sees values published after it subscribed,
// in publish order. Publish never blocks on a slow subscriber.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// NewBroadcaster creates an open broadcaster with no subscribers
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Subscribe attaches a new subscriber. Subscribing to a closed broadcaster
// returns a subscription whose channel is already closed.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		parent: b,
		signal: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		s.ended = true
	} else {
		b.subs[s] = struct{}{}
	}
	b.mu.Unlock()

	go s.pump()
	return s
}

// Publish queues v for every current subscriber
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for s := range b.subs {
		s.enqueue(v)
	}
}

// Close ends the stream. Subscribers still receive what was queued before
// their channel closes.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.end()
	}
	b.subs = make(map[*Subscription[T]]struct{})
}

// Subscribers returns the number of attached subscribers
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster[T]) remove(s *Subscription[T]) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Subscription is one subscriber's view of a Broadcaster. Values are buffered
// without bound until read from C.
type Subscription[T any] struct {
	parent *Broadcaster[T]

	mu     sync.Mutex
	queue  []T
	ended  bool
	signal chan struct{}

	out  chan T
	done chan struct{}
	once sync.Once
}

// C returns the delivery channel. It is closed after Close, or after the
// broadcaster closes and the queue drained.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Close detaches the subscriber. Undelivered values are dropped.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.parent.remove(s)
		close(s.done)
	})
}

func (s *Subscription[T]) enqueue(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) end() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			if s.ended {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			select {
			case <-s.signal:
			case <-s.done:
				return
			}
			s.mu.Lock()
		}
		var zero T
		v := s.queue[0]
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}
