package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpMessage wraps a Job with its RabbitMQ delivery information
type amqpMessage struct {
	job         *Job
	deliveryTag uint64
	channel     *amqp.Channel
}

var _ Message = (*amqpMessage)(nil)

// Job returns the delivered job.
func (m *amqpMessage) Job() *Job { return m.job }

// Ack acknowledges the message
func (m *amqpMessage) Ack() error {
	return m.channel.Ack(m.deliveryTag, false)
}

// Nack negatively acknowledges the message
func (m *amqpMessage) Nack(requeue bool) error {
	return m.channel.Nack(m.deliveryTag, false, requeue)
}
