package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Topic for queued campaign dispatch jobs.
const TopicCampaignDispatch = "campaign_dispatch"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue runs handlers in-process. Used when no broker is configured;
// queued campaigns then execute inside the server process.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	log      zerolog.Logger
}

func NewInMemoryQueue(log zerolog.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		log:      log,
	}
}

type jobPayload struct {
	payload    any
	retryCount int
	maxRetries int
}

// Publish sends a message to all subscribers.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := jobPayload{payload: payload, maxRetries: 3}
	for _, handler := range handlers {
		go q.processJob(topic, handler, job)
	}
	return nil
}

// processJob handles retries with backoff.
func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job jobPayload) {
	for {
		err := handler(job.payload)
		if err == nil {
			return
		}

		job.retryCount++
		if job.retryCount > job.maxRetries {
			q.log.Error().Err(err).Str("topic", topic).Int("attempts", job.retryCount).
				Msg("job permanently failed")
			return
		}
		q.log.Warn().Err(err).Str("topic", topic).
			Int("attempt", job.retryCount).Int("max", job.maxRetries).
			Msg("job failed, retrying")
		time.Sleep(time.Duration(job.retryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
