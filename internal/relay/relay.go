// Package relay carries domain events from publishers to in-process
// handlers over a pluggable broker. Delivery is at-least-once: handlers
// must tolerate duplicates, keyed by Event.ID.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNoBroker = errors.New("relay: broker is not configured")

// Event is the envelope stored on the wire.
type Event struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

type Handler func(ctx context.Context, ev Event) error

// Delivery is one message handed out by a Broker.
type Delivery interface {
	Topic() string
	Body() []byte
	Ack() error
	Nack(requeue bool) error
}

type Broker interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Consume(ctx context.Context, topics []string) (<-chan Delivery, error)
	Close() error
}

type Relay struct {
	broker Broker
	log    logrus.FieldLogger
	now    func() time.Time

	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New(broker Broker, log logrus.FieldLogger) *Relay {
	return &Relay{
		broker:   broker,
		log:      log,
		now:      time.Now,
		handlers: make(map[string][]Handler),
	}
}

// Subscribe appends h to the topic's handler chain. Handlers run in
// subscription order. Subscribe before Run; topics added later are not
// bound on the broker.
func (r *Relay) Subscribe(topic string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[topic] = append(r.handlers[topic], h)
}

// Topics returns the subscribed topics in sorted order.
func (r *Relay) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Publish wraps payload in an envelope with a fresh id and hands it to the
// broker.
func (r *Relay) Publish(ctx context.Context, topic string, payload any) error {
	if r.broker == nil {
		return ErrNoBroker
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	body, err := json.Marshal(Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		Payload:     raw,
		PublishedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", topic, err)
	}

	if err := r.broker.Publish(ctx, topic, body); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Run consumes every subscribed topic until ctx is cancelled or the broker
// closes the stream.
func (r *Relay) Run(ctx context.Context) error {
	if r.broker == nil {
		return ErrNoBroker
	}

	topics := r.Topics()
	if len(topics) == 0 {
		<-ctx.Done()
		return nil
	}

	deliveries, err := r.broker.Consume(ctx, topics)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	r.log.WithField("topics", topics).Info("relay: consuming")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				r.log.Info("relay: delivery stream closed")
				return nil
			}
			r.dispatch(ctx, d)
		}
	}
}

func (r *Relay) dispatch(ctx context.Context, d Delivery) {
	var ev Event
	if err := json.Unmarshal(d.Body(), &ev); err != nil || ev.Topic == "" {
		if err == nil {
			err = errors.New("missing topic")
		}
		r.log.WithField("topic", d.Topic()).WithError(err).Warn("relay: malformed message dropped")
		if nerr := d.Nack(false); nerr != nil {
			r.log.WithError(nerr).Warn("relay: nack failed")
		}
		return
	}

	r.mu.RLock()
	chain := append([]Handler(nil), r.handlers[ev.Topic]...)
	r.mu.RUnlock()

	for i, h := range chain {
		if err := r.invoke(ctx, h, ev); err != nil {
			r.log.WithFields(logrus.Fields{
				"topic":    ev.Topic,
				"event_id": ev.ID,
				"handler":  i,
			}).WithError(err).Error("relay: handler failed")
		}
	}

	if err := d.Ack(); err != nil {
		r.log.WithField("event_id", ev.ID).WithError(err).Warn("relay: ack failed")
	}
}

func (r *Relay) invoke(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			r.log.WithField("stack", string(debug.Stack())).Error("relay: handler panicked")
		}
	}()
	return h(ctx, ev)
}
