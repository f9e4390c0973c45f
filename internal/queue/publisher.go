package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job types carried on the stream.
const (
	JobJoinRequestApproved = "joinrequest.approved"
	JobContractsExpire     = "contracts.expire"
	JobPaymentsOverdue     = "payments.overdue"
)

// Job is one stream entry. ID names the entity the job acts on, if any.
type Job struct {
	Type   string
	ID     string
	Fields map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, job Job) error
}

type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, job Job) error {
	values := map[string]any{
		"type":       job.Type,
		"id":         job.ID,
		"enqueuedAt": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range job.Fields {
		values[k] = v
	}

	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result(); err != nil {
		return fmt.Errorf("xadd %s: %w", job.Type, err)
	}
	return nil
}

// DecodeJob turns stream values back into a Job.
func DecodeJob(values map[string]interface{}) (Job, error) {
	job := Job{Fields: map[string]string{}}
	for k, v := range values {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		switch k {
		case "type":
			job.Type = s
		case "id":
			job.ID = s
		default:
			job.Fields[k] = s
		}
	}
	if job.Type == "" {
		return Job{}, fmt.Errorf("job without type")
	}
	return job, nil
}
