package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"crosspost-backend/internal/models"
)

// PostEventsChannel is the redis pub/sub channel the websocket hub bridges to
// connected dashboards.
const PostEventsChannel = "post_events"

// RedisEvents publishes post lifecycle events over redis pub/sub.
type RedisEvents struct {
	rdb *redis.Client
}

func NewRedisEvents(rdb *redis.Client) *RedisEvents {
	return &RedisEvents{rdb: rdb}
}

func (e *RedisEvents) PublishPostEvent(ctx context.Context, ev models.PostEvent) {
	data, err := json.Marshal(models.WSMessage{Type: "post_event", Payload: ev})
	if err != nil {
		return
	}
	e.rdb.Publish(ctx, PostEventsChannel, string(data))
}

// RedisQueue pushes jobs onto the worker queues.
type RedisQueue struct {
	rdb *redis.Client
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

func (q *RedisQueue) Enqueue(ctx context.Context, queue string, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queue, string(data)).Err()
}
