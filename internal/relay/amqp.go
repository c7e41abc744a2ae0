package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type AMQPOptions struct {
	URL      string
	Exchange string
	// Queue names the consumer group. Processes sharing a queue split the
	// work; distinct queues each receive every message.
	Queue    string
	Prefetch int
	// Exclusive gives each consumer a private auto-deleted queue named
	// Queue plus a random suffix, so every process sees every message.
	Exclusive bool
}

type queueDecl struct {
	name       string
	durable    bool
	autoDelete bool
	exclusive  bool
}

func (o AMQPOptions) queueDecl() queueDecl {
	if o.Exclusive {
		return queueDecl{name: o.Queue + "." + uuid.NewString(), autoDelete: true, exclusive: true}
	}
	return queueDecl{name: o.Queue, durable: true}
}

// AMQPBroker publishes to a durable topic exchange and consumes from a
// durable queue bound to the requested routing keys.
type AMQPBroker struct {
	opts AMQPOptions
	log  logrus.FieldLogger
	conn *amqp.Connection

	pubMu sync.Mutex
	pub   *amqp.Channel
}

func DialAMQP(opts AMQPOptions, log logrus.FieldLogger) (*AMQPBroker, error) {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 1
	}

	conn, err := amqp.Dial(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		opts.Exchange, // name
		"topic",       // kind
		true,          // durable
		false,         // auto-delete
		false,         // internal
		false,         // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", opts.Exchange, err)
	}

	log.WithField("exchange", opts.Exchange).Info("relay: connected to RabbitMQ")
	return &AMQPBroker{opts: opts, log: log, conn: conn, pub: ch}, nil
}

func (b *AMQPBroker) Publish(ctx context.Context, topic string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	return b.pub.Publish(
		b.opts.Exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (b *AMQPBroker) Consume(ctx context.Context, topics []string) (<-chan Delivery, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Qos(b.opts.Prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	decl := b.opts.queueDecl()
	q, err := ch.QueueDeclare(
		decl.name,
		decl.durable,
		decl.autoDelete,
		decl.exclusive,
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", decl.name, err)
	}

	for _, topic := range topics {
		if err := ch.QueueBind(q.Name, topic, b.opts.Exchange, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to bind %s: %w", topic, err)
		}
	}

	msgs, err := ch.Consume(
		q.Name,
		"",             // consumer
		false,          // auto-ack
		decl.exclusive, // exclusive
		false,          // no-local
		false,          // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- amqpDelivery{msg: msg}:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()

	b.log.WithFields(logrus.Fields{"queue": q.Name, "topics": topics}).Info("relay: consumer registered")
	return out, nil
}

func (b *AMQPBroker) Close() error {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if b.pub != nil {
		_ = b.pub.Close()
	}
	if err := b.conn.Close(); err != nil {
		return fmt.Errorf("close RabbitMQ connection: %w", err)
	}
	return nil
}

type amqpDelivery struct {
	msg amqp.Delivery
}

func (d amqpDelivery) Topic() string { return d.msg.RoutingKey }
func (d amqpDelivery) Body() []byte  { return d.msg.Body }
func (d amqpDelivery) Ack() error    { return d.msg.Ack(false) }

func (d amqpDelivery) Nack(requeue bool) error { return d.msg.Nack(false, requeue) }
