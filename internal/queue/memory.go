package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultMemoryBuffer is the buffer size of the in-process queue.
const DefaultMemoryBuffer = 128

// ErrQueueClosed is returned when operating on a closed queue.
var ErrQueueClosed = errors.New("queue is closed")

// MemoryQueue implements JobQueue with an in-process channel. It is the
// default driver: on a single device there is no broker to talk to, and jobs
// do not need to survive a restart because unenriched tasks are already
// persisted and can be re-enqueued.
type MemoryQueue struct {
	mu     sync.Mutex
	jobs   chan *Job
	timers []*time.Timer
	closed bool
}

var _ JobQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an in-process queue with the given buffer size.
// A non-positive size uses DefaultMemoryBuffer.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = DefaultMemoryBuffer
	}
	return &MemoryQueue{
		jobs: make(chan *Job, buffer),
	}
}

// Enqueue adds a job to the queue. A job with NotBefore in the future is held
// back and delivered once that instant passes.
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	if job.NotBefore != nil {
		if delay := time.Until(*job.NotBefore); delay > 0 {
			q.mu.Lock()
			if q.closed {
				q.mu.Unlock()
				return ErrQueueClosed
			}
			timer := time.AfterFunc(delay, func() {
				// Best effort: the queue may have closed in the meantime.
				_ = q.push(job)
			})
			q.timers = append(q.timers, timer)
			q.mu.Unlock()
			return nil
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return q.push(job)
}

func (q *MemoryQueue) push(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("queue buffer full (%d jobs)", cap(q.jobs))
	}
}

// Consume returns a channel of messages from the queue.
func (q *MemoryQueue) Consume(ctx context.Context, prefetchCount int) (<-chan Message, <-chan error, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, nil, ErrQueueClosed
	}
	q.mu.Unlock()

	if prefetchCount <= 0 {
		prefetchCount = 1
	}
	msgChan := make(chan Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)

		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.jobs:
				if !ok {
					return
				}
				if job.IsExpired() {
					continue
				}
				select {
				case <-ctx.Done():
					// Put the job back so a later consumer picks it up.
					_ = q.push(job)
					return
				case msgChan <- &memoryMessage{job: job, queue: q}:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// Close shuts the queue down. Pending delayed deliveries are dropped.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for _, timer := range q.timers {
		timer.Stop()
	}
	q.timers = nil
	close(q.jobs)
	return nil
}

// HealthCheck verifies the queue is usable.
func (q *MemoryQueue) HealthCheck(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

// memoryMessage wraps a job delivered by a MemoryQueue.
type memoryMessage struct {
	job   *Job
	queue *MemoryQueue
}

var _ Message = (*memoryMessage)(nil)

func (m *memoryMessage) Job() *Job { return m.job }

// Ack is a no-op; the job already left the channel.
func (m *memoryMessage) Ack() error { return nil }

// Nack requeues the job when asked; otherwise the job is dropped since the
// in-process driver has no dead letter queue.
func (m *memoryMessage) Nack(requeue bool) error {
	if !requeue {
		return nil
	}
	return m.queue.push(m.job)
}
