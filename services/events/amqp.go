// Package eventsvc implements core.EventPublisher.
package eventsvc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/trezcool/bursar/core"
)

const publishTimeout = 5 * time.Second

// AMQPPublisher publishes events as JSON on a durable topic exchange,
// routed by event name (ledger.saved, slip.saved, entity.changed).
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex // guards channel
	channel  *amqp.Channel
	exchange string
}

var _ core.EventPublisher = (*AMQPPublisher)(nil)

func NewAMQPPublisher(conf core.AMQPConfig) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "dialing AMQP")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "opening AMQP channel")
	}
	err = ch.ExchangeDeclare(
		conf.Exchange, // name
		"topic",       // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declaring exchange")
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: conf.Exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt core.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		evt.Name,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    evt.At,
			Type:         evt.Name,
			Body:         body,
		},
	)
	return errors.Wrap(err, "publishing event")
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
