package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// AMQPQueue publishes jobs to RabbitMQ for a separate worker process to
// consume. Subscribing is the worker binary's job, not this type's.
type AMQPQueue struct {
	Channel *amqp.Channel
}

func NewAMQPQueue(url string) (*AMQPQueue, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	closer := func() {
		ch.Close()
		conn.Close()
	}
	return &AMQPQueue{Channel: ch}, closer, nil
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	if _, err := q.Channel.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.Channel.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	return fmt.Errorf("consuming from AMQP is handled by the worker binary")
}

var _ Queue = (*AMQPQueue)(nil)
