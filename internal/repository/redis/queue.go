package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"capellawish/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// QueueRepository implements the domain.QueueRepository interface using Redis.
// Retry count, backoff, and dead-lettering live here, at the queue level, not
// in the pipeline stages.
type QueueRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewQueueRepository creates a new Redis queue repository
func NewQueueRepository(client *redis.Client, logger *slog.Logger) *QueueRepository {
	return &QueueRepository{
		client: client,
		logger: logger,
	}
}

// Redis key patterns
const (
	queueKeyPrefix   = "queue:"      // queue:job_type
	jobKeyPrefix     = "job:"        // job:job_id
	processingPrefix = "processing:" // processing:job_type
	retryKeyPrefix   = "retry:"      // retry:job_type
	deadLetterPrefix = "dead:"       // dead:job_type
	statsKeyPrefix   = "stats:"      // stats:job_type
)

// Job retry configuration
const (
	maxRetries        = 5
	initialBackoffSec = 1
	maxBackoffSec     = 300       // 5 minutes
	jobTTLSec         = 3600 * 24 // 24 hours
)

// queueJob is the stored job representation with retry metadata
type queueJob struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	Status     string                 `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  *time.Time             `json:"updated_at,omitempty"`
	RetryCount int                    `json:"retry_count"`
	MaxRetries int                    `json:"max_retries"`
	NextRetry  *time.Time             `json:"next_retry,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// getJob loads and decodes a job by ID
func (r *QueueRepository) getJob(ctx context.Context, jobID string) (*queueJob, error) {
	data, err := r.client.HGet(ctx, jobKeyPrefix+jobID, "data").Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("job data not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job data: %w", err)
	}

	var job queueJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// saveJob writes the job hash fields onto a pipeline
func saveJob(ctx context.Context, pipe redis.Pipeliner, job *queueJob) {
	data, _ := json.Marshal(job)
	fields := map[string]interface{}{
		"data":        string(data),
		"status":      job.Status,
		"type":        job.Type,
		"retry_count": job.RetryCount,
	}
	if job.UpdatedAt != nil {
		fields["updated_at"] = job.UpdatedAt.Unix()
	}
	if job.Error != "" {
		fields["error"] = job.Error
	}
	pipe.HMSet(ctx, jobKeyPrefix+job.ID, fields)
}

// Enqueue adds a new job to the queue
func (r *QueueRepository) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &payloadMap); err != nil {
		return fmt.Errorf("failed to unmarshal payload to map: %w", err)
	}

	job := &queueJob{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    payloadMap,
		Status:     domain.JobStatusPending,
		CreatedAt:  time.Now(),
		MaxRetries: maxRetries,
	}

	pipe := r.client.TxPipeline()
	saveJob(ctx, pipe, job)
	pipe.HSet(ctx, jobKeyPrefix+job.ID, "created_at", job.CreatedAt.Unix())
	pipe.Expire(ctx, jobKeyPrefix+job.ID, time.Duration(jobTTLSec)*time.Second)
	pipe.LPush(ctx, queueKeyPrefix+jobType, job.ID)
	pipe.HIncrBy(ctx, statsKeyPrefix+jobType, "total_enqueued", 1)
	pipe.HIncrBy(ctx, statsKeyPrefix+jobType, "pending", 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	r.logger.Info("Job enqueued",
		"job_id", job.ID,
		"job_type", jobType,
		"payload_size", len(payloadBytes),
	)
	return nil
}

// Dequeue retrieves the next job from the queue with a short blocking wait.
// Jobs move atomically to a processing list so they survive worker crashes.
// Returns nil, nil when no job is available.
func (r *QueueRepository) Dequeue(ctx context.Context, jobType string) (*domain.QueueJob, error) {
	queueKey := queueKeyPrefix + jobType
	processingKey := processingPrefix + jobType

	jobID, err := r.client.BRPopLPush(ctx, queueKey, processingKey, 5*time.Second).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	job, err := r.getJob(ctx, jobID)
	if err != nil {
		r.logger.Warn("Dequeued job with missing data, dropping", "job_id", jobID)
		r.client.LRem(ctx, processingKey, 1, jobID)
		return nil, err
	}

	now := time.Now()
	job.Status = domain.JobStatusProcessing
	job.UpdatedAt = &now

	pipe := r.client.TxPipeline()
	saveJob(ctx, pipe, job)
	pipe.HIncrBy(ctx, statsKeyPrefix+jobType, "pending", -1)
	pipe.HIncrBy(ctx, statsKeyPrefix+jobType, "processing", 1)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to update job status", "error", err, "job_id", jobID)
	}

	domainJob := &domain.QueueJob{
		ID:        job.ID,
		Type:      job.Type,
		Payload:   job.Payload,
		Status:    job.Status,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	updatedAtStr := now.Format(time.RFC3339)
	domainJob.UpdatedAt = &updatedAtStr

	r.logger.Info("Job dequeued",
		"job_id", job.ID,
		"job_type", jobType,
		"retry_count", job.RetryCount,
	)
	return domainJob, nil
}

// Complete marks a job as completed and removes it from processing
func (r *QueueRepository) Complete(ctx context.Context, jobID string) error {
	job, err := r.getJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job for completion: %w", err)
	}

	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.UpdatedAt = &now

	pipe := r.client.TxPipeline()
	saveJob(ctx, pipe, job)
	pipe.LRem(ctx, processingPrefix+job.Type, 1, jobID)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "processing", -1)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "completed", 1)
	// Completed jobs only need to stick around for inspection
	pipe.Expire(ctx, jobKeyPrefix+jobID, time.Hour*6)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	r.logger.Info("Job completed", "job_id", jobID, "job_type", job.Type)
	return nil
}

// Fail marks a job as failed and schedules a retry with exponential backoff,
// dead-lettering once retries are exhausted.
func (r *QueueRepository) Fail(ctx context.Context, jobID string, errorMsg string) error {
	job, err := r.getJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job for failure: %w", err)
	}

	now := time.Now()
	job.Error = errorMsg
	job.UpdatedAt = &now
	job.RetryCount++

	pipe := r.client.TxPipeline()

	if job.RetryCount <= job.MaxRetries {
		backoffSec := int(math.Min(
			float64(initialBackoffSec)*math.Pow(2, float64(job.RetryCount-1)),
			float64(maxBackoffSec),
		))
		nextRetry := now.Add(time.Duration(backoffSec) * time.Second)
		job.NextRetry = &nextRetry
		job.Status = domain.JobStatusPending

		pipe.ZAdd(ctx, retryKeyPrefix+job.Type, redis.Z{
			Score:  float64(nextRetry.Unix()),
			Member: jobID,
		})

		r.logger.Info("Job scheduled for retry",
			"job_id", jobID,
			"job_type", job.Type,
			"retry_count", job.RetryCount,
			"next_retry", nextRetry,
			"error", errorMsg,
		)
	} else {
		job.Status = domain.JobStatusFailed
		pipe.LPush(ctx, deadLetterPrefix+job.Type, jobID)
		pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "failed", 1)

		r.logger.Error("Job failed permanently",
			"job_id", jobID,
			"job_type", job.Type,
			"retry_count", job.RetryCount,
			"error", errorMsg,
		)
	}

	saveJob(ctx, pipe, job)
	pipe.LRem(ctx, processingPrefix+job.Type, 1, jobID)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "processing", -1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to handle job failure: %w", err)
	}
	return nil
}

// FailPermanent moves a job straight to the dead-letter list without any
// retry. Used for referential failures (target record vanished) where a
// retry can never succeed.
func (r *QueueRepository) FailPermanent(ctx context.Context, jobID string, errorMsg string) error {
	job, err := r.getJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job for permanent failure: %w", err)
	}

	now := time.Now()
	job.Error = errorMsg
	job.UpdatedAt = &now
	job.Status = domain.JobStatusFailed

	pipe := r.client.TxPipeline()
	saveJob(ctx, pipe, job)
	pipe.LPush(ctx, deadLetterPrefix+job.Type, jobID)
	pipe.LRem(ctx, processingPrefix+job.Type, 1, jobID)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "processing", -1)
	pipe.HIncrBy(ctx, statsKeyPrefix+job.Type, "failed", 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to dead-letter job: %w", err)
	}

	r.logger.Error("Job dead-lettered without retry",
		"job_id", jobID,
		"job_type", job.Type,
		"error", errorMsg,
	)
	return nil
}

// GetPendingCount returns the number of pending jobs for a job type
func (r *QueueRepository) GetPendingCount(ctx context.Context, jobType string) (int, error) {
	count, err := r.client.LLen(ctx, queueKeyPrefix+jobType).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return int(count), nil
}

// ProcessRetryJobs moves jobs from the retry set back to the main queue once
// their backoff deadline passes. The worker drives this every cycle.
func (r *QueueRepository) ProcessRetryJobs(ctx context.Context, jobType string) error {
	retryKey := retryKeyPrefix + jobType
	now := time.Now()

	jobs, err := r.client.ZRangeByScoreWithScores(ctx, retryKey, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get retry jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, job := range jobs {
		jobID := job.Member.(string)
		pipe.ZRem(ctx, retryKey, jobID)
		pipe.LPush(ctx, queueKeyPrefix+jobType, jobID)
		pipe.HIncrBy(ctx, statsKeyPrefix+jobType, "pending", 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to process retry jobs: %w", err)
	}

	r.logger.Info("Processed retry jobs",
		"job_type", jobType,
		"count", len(jobs),
	)
	return nil
}

// GetQueueStats returns statistics for a job type
func (r *QueueRepository) GetQueueStats(ctx context.Context, jobType string) (map[string]int64, error) {
	stats, err := r.client.HGetAll(ctx, statsKeyPrefix+jobType).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	result := make(map[string]int64)
	for key, value := range stats {
		if val, err := strconv.ParseInt(value, 10, 64); err == nil {
			result[key] = val
		}
	}

	if pending, err := r.client.LLen(ctx, queueKeyPrefix+jobType).Result(); err == nil {
		result["current_pending"] = pending
	}
	if processing, err := r.client.LLen(ctx, processingPrefix+jobType).Result(); err == nil {
		result["current_processing"] = processing
	}
	if retrying, err := r.client.ZCard(ctx, retryKeyPrefix+jobType).Result(); err == nil {
		result["current_retrying"] = retrying
	}
	if dead, err := r.client.LLen(ctx, deadLetterPrefix+jobType).Result(); err == nil {
		result["current_dead"] = dead
	}

	return result, nil
}
