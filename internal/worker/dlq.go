package worker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQKey returns the dead-letter list name for a queue.
func DLQKey(queue string) string { return "dlq:" + queue }

func pushDLQ(ctx context.Context, rdb *redis.Client, queue string, job *Job) {
	encoded, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("DLQ marshal failed")
		return
	}
	if err := rdb.LPush(ctx, DLQKey(queue), encoded).Err(); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("DLQ push failed")
	}
}

// ListDLQ returns up to limit dead jobs without removing them.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]Job, error) {
	raws, err := rdb.LRange(ctx, DLQKey(queue), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(raws))
	for _, raw := range raws {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RequeueDLQ moves every dead job back onto its source queue with the
// attempt counter reset. Returns the number of jobs moved.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string) (int, error) {
	moved := 0
	for {
		raw, err := rdb.RPop(ctx, DLQKey(queue)).Result()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		job.Attempts = 0
		encoded, _ := json.Marshal(job)
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			return moved, err
		}
		moved++
	}
}
