package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrBrokerClosed = errors.New("relay: broker closed")

// MemoryBroker delivers messages within the process. Every Consume call is
// its own subscriber and receives each matching message once.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[*memSub]struct{}
	closed bool

	acked  atomic.Int64
	nacked atomic.Int64
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[*memSub]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, body []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	var targets []*memSub
	for s := range b.subs {
		if s.topics[topic] {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		d := &memDelivery{topic: topic, body: append([]byte(nil), body...), sub: s, broker: b}
		if err := s.send(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBroker) Consume(ctx context.Context, topics []string) (<-chan Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}

	s := &memSub{
		topics: make(map[string]bool, len(topics)),
		ch:     make(chan Delivery, 256),
		stop:   make(chan struct{}),
	}
	for _, t := range topics {
		s.topics[t] = true
	}
	b.subs[s] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-s.stop:
		}
		b.mu.Lock()
		delete(b.subs, s)
		b.mu.Unlock()
		s.close()
	}()

	return s.ch, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*memSub]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.close()
	}
	return nil
}

// Acked and Nacked count settled deliveries.
func (b *MemoryBroker) Acked() int64  { return b.acked.Load() }
func (b *MemoryBroker) Nacked() int64 { return b.nacked.Load() }

type memSub struct {
	topics map[string]bool
	ch     chan Delivery
	stop   chan struct{}

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func (s *memSub) send(ctx context.Context, d Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- d:
		return nil
	case <-s.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memSub) close() {
	s.once.Do(func() {
		close(s.stop)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

type memDelivery struct {
	topic  string
	body   []byte
	sub    *memSub
	broker *MemoryBroker
}

func (d *memDelivery) Topic() string { return d.topic }
func (d *memDelivery) Body() []byte  { return d.body }

func (d *memDelivery) Ack() error {
	d.broker.acked.Add(1)
	return nil
}

func (d *memDelivery) Nack(requeue bool) error {
	d.broker.nacked.Add(1)
	if requeue {
		go func() { _ = d.sub.send(context.Background(), d) }()
	}
	return nil
}

// Subscribers reports how many Consume streams are open.
func (b *MemoryBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
