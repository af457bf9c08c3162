package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"capellawish/internal/config"
	"capellawish/internal/crawler"
	"capellawish/internal/domain"
	"capellawish/internal/mailer"

	"golang.org/x/sync/errgroup"
)

// Queue is the job queue as seen by the worker: the domain operations plus
// the retry pump that moves backed-off jobs back into their queues.
type Queue interface {
	domain.QueueRepository
	ProcessRetryJobs(ctx context.Context, jobType string) error
}

// WorkerService processes background jobs
type WorkerService struct {
	config *config.Config
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	queueRepo Queue
	processor *JobProcessor

	stats *WorkerStats
}

// WorkerStats tracks worker performance metrics
type WorkerStats struct {
	JobsProcessed int64
	JobsSucceeded int64
	JobsFailed    int64

	mu          sync.Mutex
	lastJobTime time.Time
}

// New creates a new worker service
func New(
	cfg *config.Config,
	logger *slog.Logger,
	itemRepo domain.ItemRepository,
	queueRepo Queue,
) (*WorkerService, error) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := crawler.NewFetcher(cfg.FetchTimeout, cfg.UserAgent, logger)
	c := crawler.New(fetcher, crawler.DefaultBackend, logger)
	images := crawler.NewImageResolver(fetcher, cfg.TempDir, logger)

	var mail mailer.Mailer
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword, logger)
	} else {
		mail = mailer.NewLogMailer(logger)
	}

	workerService := &WorkerService{
		config:    cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		queueRepo: queueRepo,
		stats:     &WorkerStats{},
	}
	workerService.processor = NewJobProcessor(logger, c, images, itemRepo, queueRepo, mail)

	return workerService, nil
}

// Start begins processing jobs and blocks until interrupted
func (w *WorkerService) Start() error {
	w.logger.Info("Starting worker service...")

	group, ctx := errgroup.WithContext(w.ctx)
	for _, jobType := range domain.JobTypes {
		group.Go(func() error {
			return w.processLoop(ctx, jobType)
		})
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	w.logger.Info("Worker service is running. Press Ctrl+C to stop.")
	select {
	case <-stop:
	case <-ctx.Done():
	}

	w.logger.Info("Shutting down worker service...")
	w.cancel()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the worker service
func (w *WorkerService) Stop() error {
	w.logger.Info("Stopping worker service...")
	w.cancel()
	w.logger.Info("Worker service stopped")
	return nil
}

// processLoop drains one job type's queue every tick
func (w *WorkerService) processLoop(ctx context.Context, jobType string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Job processing stopped", "job_type", jobType)
			return ctx.Err()
		case <-ticker.C:
			w.processPendingJobs(ctx, jobType)
		}
	}
}

// processPendingJobs moves due retries back into the queue and processes a
// bounded batch of pending jobs for one type.
func (w *WorkerService) processPendingJobs(ctx context.Context, jobType string) {
	if err := w.queueRepo.ProcessRetryJobs(ctx, jobType); err != nil {
		w.logger.Error("Failed to process retry jobs",
			"error", err,
			"job_type", jobType,
		)
	}

	pendingCount, err := w.queueRepo.GetPendingCount(ctx, jobType)
	if err != nil {
		w.logger.Error("Failed to get pending job count",
			"error", err,
			"job_type", jobType,
		)
		return
	}
	if pendingCount == 0 {
		return
	}

	w.logger.Debug("Processing pending jobs",
		"job_type", jobType,
		"count", pendingCount,
	)

	// Cap the batch so one type cannot starve the cycle
	maxJobs := 10
	if pendingCount < maxJobs {
		maxJobs = pendingCount
	}

	for i := 0; i < maxJobs; i++ {
		job, err := w.queueRepo.Dequeue(ctx, jobType)
		if err != nil {
			w.logger.Error("Failed to dequeue job",
				"error", err,
				"job_type", jobType,
			)
			continue
		}
		if job == nil {
			break
		}
		w.processJob(ctx, job)
	}
}

// processJob processes a single job and reports the outcome to the queue
func (w *WorkerService) processJob(ctx context.Context, job *domain.QueueJob) {
	startTime := time.Now()
	jobLogger := w.logger.With(
		"job_id", job.ID,
		"job_type", job.Type,
	)

	jobLogger.Info("Processing job")

	var processingErr error
	switch job.Type {
	case domain.JobTypeRetrieveMetadata:
		processingErr = w.processor.ProcessRetrieveMetadata(ctx, job.Payload, jobLogger)
	case domain.JobTypeRetrieveImage:
		processingErr = w.processor.ProcessRetrieveImage(ctx, job.Payload, jobLogger)
	case domain.JobTypePersist:
		processingErr = w.processor.ProcessPersist(ctx, job.Payload, jobLogger)
	case domain.JobTypeSendEmail:
		processingErr = w.processor.ProcessSendEmail(ctx, job.Payload, jobLogger)
	default:
		processingErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	switch {
	case processingErr == nil:
		jobLogger.Info("Job processed successfully")
		if err := w.queueRepo.Complete(ctx, job.ID); err != nil {
			jobLogger.Error("Failed to mark job as completed", "error", err)
		}
		atomic.AddInt64(&w.stats.JobsSucceeded, 1)

	case errors.Is(processingErr, domain.ErrNotFound):
		// Referential failure: the target record vanished, a retry can
		// never succeed
		jobLogger.Error("Job failed permanently", "error", processingErr)
		if err := w.queueRepo.FailPermanent(ctx, job.ID, processingErr.Error()); err != nil {
			jobLogger.Error("Failed to dead-letter job", "error", err)
		}
		atomic.AddInt64(&w.stats.JobsFailed, 1)

	default:
		jobLogger.Error("Job processing failed", "error", processingErr)
		if err := w.queueRepo.Fail(ctx, job.ID, processingErr.Error()); err != nil {
			jobLogger.Error("Failed to mark job as failed", "error", err)
		}
		atomic.AddInt64(&w.stats.JobsFailed, 1)
	}

	atomic.AddInt64(&w.stats.JobsProcessed, 1)
	w.stats.mu.Lock()
	w.stats.lastJobTime = time.Now()
	w.stats.mu.Unlock()

	jobLogger.Debug("Job processing completed",
		"duration", time.Since(startTime),
		"success", processingErr == nil,
	)
}

// GetStats returns current worker statistics
func (w *WorkerService) GetStats() *WorkerStats {
	return w.stats
}

// HealthCheck performs a health check on the worker service
func (w *WorkerService) HealthCheck() error {
	if w.ctx.Err() != nil {
		return fmt.Errorf("worker context cancelled: %w", w.ctx.Err())
	}
	if _, err := w.queueRepo.GetPendingCount(w.ctx, domain.JobTypeRetrieveMetadata); err != nil {
		return fmt.Errorf("queue connectivity check failed: %w", err)
	}
	return nil
}
