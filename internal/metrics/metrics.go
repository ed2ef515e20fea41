package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	PublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosspost_publish_attempts_total",
		Help: "Publish executor attempts by platform and classified outcome.",
	}, []string{"platform", "outcome"})

	PostsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crosspost_posts_scheduled_total",
		Help: "Posts committed to a future slot.",
	})

	AutopilotRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crosspost_autopilot_runs_total",
		Help: "Auto-pilot selector invocations.",
	})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crosspost_job_queue_depth",
		Help: "Pending jobs per redis queue.",
	}, []string{"queue"})
)

// QueueDepthCollector samples redis queue lengths on a ticker.
type QueueDepthCollector struct {
	rdb    *redis.Client
	queues []string
	stop   chan struct{}
}

func NewQueueDepthCollector(rdb *redis.Client, queues []string) *QueueDepthCollector {
	return &QueueDepthCollector{
		rdb:    rdb,
		queues: queues,
		stop:   make(chan struct{}),
	}
}

func (c *QueueDepthCollector) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.sample()
			}
		}
	}()
}

func (c *QueueDepthCollector) Stop() {
	close(c.stop)
}

func (c *QueueDepthCollector) sample() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, q := range c.queues {
		n, err := c.rdb.LLen(ctx, q).Result()
		if err != nil {
			continue
		}
		queueDepth.WithLabelValues(q).Set(float64(n))
	}
}
