package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"capellawish/internal/crawler"
	"capellawish/internal/domain"
	"capellawish/internal/mailer"
)

// JobProcessor handles the enrichment pipeline stages and outbound email.
// Each stage is an independently-dispatchable, independently-retryable unit;
// stage chaining happens by enqueueing the next stage's job.
type JobProcessor struct {
	logger    *slog.Logger
	crawler   *crawler.Crawler
	images    *crawler.ImageResolver
	itemRepo  domain.ItemRepository
	queueRepo domain.QueueRepository
	mail      mailer.Mailer
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	logger *slog.Logger,
	c *crawler.Crawler,
	images *crawler.ImageResolver,
	itemRepo domain.ItemRepository,
	queueRepo domain.QueueRepository,
	mail mailer.Mailer,
) *JobProcessor {
	return &JobProcessor{
		logger:    logger,
		crawler:   c,
		images:    images,
		itemRepo:  itemRepo,
		queueRepo: queueRepo,
		mail:      mail,
	}
}

// enrichmentJob carries pipeline state between the chained stages
type enrichmentJob struct {
	ItemID      int64  `json:"item_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	ImagePath   string `json:"image_path,omitempty"`
}

// decodePayload converts a queue payload map back into a typed struct
func decodePayload(payload map[string]interface{}, dest interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// ProcessRetrieveMetadata runs the retrieve stage: fetch the source page,
// parse it, and extract OpenGraph properties. When no image URL is found (or
// the caller asked to skip it) the persist stage is chained directly,
// bypassing the image stage.
func (p *JobProcessor) ProcessRetrieveMetadata(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	var req domain.EnrichmentRequest
	if err := decodePayload(payload, &req); err != nil {
		return err
	}
	if req.SourceURL == "" {
		return fmt.Errorf("missing source_url in payload")
	}
	if req.ItemID == 0 {
		return fmt.Errorf("missing item_id in payload")
	}

	logger.Info("Retrieving metadata",
		"url", req.SourceURL,
		"item_id", req.ItemID,
		"skip_image", req.SkipImage,
	)

	properties := p.crawler.RetrieveData(ctx, req.SourceURL)
	if len(properties) == 0 {
		return fmt.Errorf("failed to retrieve data from url: %s", req.SourceURL)
	}

	next := &enrichmentJob{
		ItemID:      req.ItemID,
		Title:       properties.Get("title"),
		Description: properties.Get("description"),
	}

	// Repeated og:image tags yield a list; only the first one is used
	imageURL := properties.Get("image")

	if imageURL == "" || req.SkipImage {
		return p.queueRepo.Enqueue(ctx, domain.JobTypePersist, next)
	}

	next.ImageURL = imageURL
	return p.queueRepo.Enqueue(ctx, domain.JobTypeRetrieveImage, next)
}

// ProcessRetrieveImage runs the image stage. An HTTP error fetching the
// image is non-fatal: the record is still saved, just without an image. Any
// other failure propagates so the queue's retry policy applies.
func (p *JobProcessor) ProcessRetrieveImage(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	var job enrichmentJob
	if err := decodePayload(payload, &job); err != nil {
		return err
	}
	if job.ImageURL == "" {
		return fmt.Errorf("missing image_url in payload")
	}

	path, err := p.images.FetchImage(ctx, job.ImageURL)
	if err != nil {
		var httpErr *crawler.HTTPError
		if errors.As(err, &httpErr) {
			logger.Error("Failed to get image data from URL",
				"url", job.ImageURL,
				"status", httpErr.StatusCode,
			)
			// Pass the data through unchanged; persist without an image
			return p.queueRepo.Enqueue(ctx, domain.JobTypePersist, &job)
		}
		return err
	}

	job.ImagePath = path
	return p.queueRepo.Enqueue(ctx, domain.JobTypePersist, &job)
}

// ProcessPersist runs the persist stage: merge the extracted fields into the
// target item under a row lock. The temporary image file is deleted after a
// successful commit, and on a permanent (not-found) failure; it is kept
// across retryable failures so a retry can still attach it.
func (p *JobProcessor) ProcessPersist(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	var job enrichmentJob
	if err := decodePayload(payload, &job); err != nil {
		return err
	}
	if job.ItemID == 0 {
		return fmt.Errorf("missing item_id in payload")
	}

	data := &domain.EnrichmentData{
		Title:       job.Title,
		Description: job.Description,
		ImagePath:   job.ImagePath,
	}

	err := p.itemRepo.ApplyEnrichment(ctx, job.ItemID, data)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("Item no longer exists, dropping enrichment", "item_id", job.ItemID)
			p.removeTempFile(job.ImagePath, logger)
			return err
		}
		logger.Error("Failed to persist enrichment", "error", err, "item_id", job.ItemID)
		return err
	}

	p.removeTempFile(job.ImagePath, logger)
	logger.Info("Enrichment persisted", "item_id", job.ItemID)
	return nil
}

// removeTempFile deletes a consumed temp image; a missing file is not an error
func (p *JobProcessor) removeTempFile(path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove temp image", "path", path, "error", err)
	}
}

// ProcessSendEmail delivers one queued account email
func (p *JobProcessor) ProcessSendEmail(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	var msg mailer.Message
	if err := decodePayload(payload, &msg); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("missing recipient in payload")
	}
	return p.mail.Send(&msg)
}
