// Package queue publishes loan lifecycle events to RabbitMQ.
// Failures are logged and returned; callers are expected to carry on
// without them.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"microloans-api/internal/domain/event"
)

const Queue = "loan.events"

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialFunc opens a connection and a channel with the events queue declared.
type dialFunc func() (io.Closer, channel, error)

type Publisher struct {
	mu     sync.Mutex
	dial   dialFunc
	conn   io.Closer
	ch     channel
	closed bool
	log    *zap.Logger
}

var _ event.Publisher = (*Publisher)(nil)

// Dial connects to the broker and declares the durable events queue.
// A channel closed by the broker is re-dialed on the next Publish.
func Dial(url string, log *zap.Logger) (*Publisher, error) {
	p := &Publisher{dial: amqpDialer(url), log: log}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func amqpDialer(url string) dialFunc {
	return func() (io.Closer, channel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		if _, err := ch.QueueDeclare(Queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, err
		}
		return conn, ch, nil
	}
}

func newPublisher(ch channel, log *zap.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

// connect replaces a missing or closed channel. Callers hold mu.
func (p *Publisher) connect() error {
	if p.closed {
		return amqp.ErrClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	if p.dial == nil {
		return amqp.ErrClosed
	}
	_ = p.drop()
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

// drop releases the current session. Callers hold mu.
func (p *Publisher) drop() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	p.conn, p.ch = nil, nil
	return err
}

func (p *Publisher) Publish(ctx context.Context, e event.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(e.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		p.log.Warn("rabbitmq: connect failed", zap.String("type", string(e.Type)), zap.Error(err))
		return err
	}
	err = p.ch.PublishWithContext(ctx, "", Queue, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) && p.dial != nil {
		// the broker closed the channel under us; one fresh session, one retry
		_ = p.drop()
		if err = p.connect(); err == nil {
			err = p.ch.PublishWithContext(ctx, "", Queue, false, false, msg)
		}
	}
	if err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("type", string(e.Type)), zap.Error(err))
		return err
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.drop()
}
