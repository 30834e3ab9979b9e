package queue

import (
	"context"
	"time"
)

// Message is a job delivery awaiting acknowledgement.
type Message interface {
	// Job returns the job carried by this delivery.
	Job() *Job

	// Ack acknowledges the message, removing it from the queue.
	Ack() error

	// Nack negatively acknowledges the message. With requeue the message is
	// redelivered later; without it the message is discarded (sent to the
	// dead letter queue on drivers that have one).
	Nack(requeue bool) error
}

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue.
	// Messages are delivered asynchronously as they arrive and the caller is
	// responsible for acknowledging each one. Prefetch controls how many
	// unacknowledged messages each consumer can hold. The returned channels
	// are closed when the context is cancelled or an error occurs.
	Consume(ctx context.Context, prefetchCount int) (<-chan Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages older than a retention window.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
