package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Job is the envelope pushed onto a Redis list queue.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// HandlerFunc processes one job payload. A returned error triggers a retry;
// after maxJobAttempts the job lands on the queue's DLQ.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

const (
	maxJobAttempts = 3
	brpopTimeout   = 5 * time.Second
)

// Dispatcher enqueues jobs onto Redis lists. It satisfies
// service.JobDispatcher.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) Dispatch(ctx context.Context, queue string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{
		ID:         uuid.NewString(),
		Queue:      queue,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes jobs from a set of queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	queues   []string
	handlers map[string]HandlerFunc
	size     int
}

func NewPool(rdb *redis.Client, handlers map[string]HandlerFunc, size int) *Pool {
	queues := make([]string, 0, len(handlers))
	for q := range handlers {
		queues = append(queues, q)
	}
	if size < 1 {
		size = 1
	}
	return &Pool{rdb: rdb, queues: queues, handlers: handlers, size: size}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", p.size).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.rdb.BRPop(ctx, brpopTimeout, p.queues...).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [queue, value].
		if len(res) != 2 {
			continue
		}
		p.process(ctx, res[0], []byte(res[1]))
	}
}

func (p *Pool) process(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("malformed job dropped")
		return
	}

	handler, ok := p.handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Msg("no handler registered")
		return
	}

	if err := handler(ctx, job.Payload); err != nil {
		job.Attempts++
		if job.Attempts >= maxJobAttempts {
			log.Error().Err(err).Str("job_id", job.ID).Str("queue", queue).Msg("job exhausted retries, moving to DLQ")
			pushDLQ(ctx, p.rdb, queue, &job)
			return
		}
		log.Warn().Err(err).Str("job_id", job.ID).Int("attempt", job.Attempts).Msg("job failed, requeueing")
		encoded, _ := json.Marshal(job)
		if err := p.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("requeue failed")
		}
	}
}
