package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"crosspost-backend/internal/models"
	"crosspost-backend/internal/repository"
	"crosspost-backend/internal/services"
)

type Pool struct {
	redis       *redis.Client
	jobRepo     *repository.JobRepo
	postRepo    *repository.PostRepo
	ingest      *services.IngestService
	executor    services.Executor
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	jobRepo *repository.JobRepo,
	postRepo *repository.PostRepo,
	ingest *services.IngestService,
	executor services.Executor,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		jobRepo:     jobRepo,
		postRepo:    postRepo,
		ingest:      ingest,
		executor:    executor,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		models.QueuePublishPost,
		models.QueueVideoIngest,
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		// Parse job
		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case models.JobTypePublishPost:
			processErr = p.processPublish(ctx, &job)
		case models.JobTypeVideoIngest:
			processErr = p.processIngest(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

// processPublish runs one publish attempt for the referenced post. A
// non-retryable outcome is a completed job: the verdict lives on the post row
// and retrying the job would not change it.
func (p *Pool) processPublish(ctx context.Context, job *models.Job) error {
	post, err := p.postRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to load post %s: %w", job.ReferenceID, err)
	}

	outcome := p.executor.Execute(ctx, post)
	if outcome.Status == models.OutcomeFailed && outcome.ErrorKind.Retryable() {
		return fmt.Errorf("publish to %s failed: %s", post.Platform, outcome.ErrorDetail)
	}
	if outcome.Status != models.OutcomePublished {
		log.Printf("Worker: post %s not published (%s: %s)", post.ID, outcome.ErrorKind, outcome.ErrorDetail)
	}
	return nil
}

func (p *Pool) processIngest(ctx context.Context, job *models.Job) error {
	var config models.IngestJobConfig
	if err := json.Unmarshal(job.ConfigJSON, &config); err != nil {
		return fmt.Errorf("invalid ingest config: %w", err)
	}

	ingested, err := p.ingest.IngestPlaylist(ctx, config.PlaylistID)
	if err != nil {
		return fmt.Errorf("failed to ingest playlist %s: %w", config.PlaylistID, err)
	}

	log.Printf("Worker: ingested %d videos from playlist %s", ingested, config.PlaylistID)
	return nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < job.MaxRetries {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s - retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), queueFor(job.Type), string(jobBytes))
		})
	} else {
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
	}
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")
	log.Printf("Job %s completed successfully", job.ID)
}

func queueFor(jobType string) string {
	switch jobType {
	case models.JobTypeVideoIngest:
		return models.QueueVideoIngest
	default:
		return models.QueuePublishPost
	}
}
