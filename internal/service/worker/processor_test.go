package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"capellawish/internal/crawler"
	"capellawish/internal/domain"
	"capellawish/internal/mailer"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeQueue records enqueued jobs
type fakeQueue struct {
	enqueued []enqueuedJob
}

type enqueuedJob struct {
	jobType string
	payload map[string]interface{}
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	q.enqueued = append(q.enqueued, enqueuedJob{jobType: jobType, payload: m})
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, jobType string) (*domain.QueueJob, error) {
	return nil, nil
}
func (q *fakeQueue) Complete(ctx context.Context, jobID string) error                 { return nil }
func (q *fakeQueue) Fail(ctx context.Context, jobID string, errorMsg string) error    { return nil }
func (q *fakeQueue) FailPermanent(ctx context.Context, jobID, errorMsg string) error  { return nil }
func (q *fakeQueue) GetPendingCount(ctx context.Context, jobType string) (int, error) { return 0, nil }

// fakeItemRepo stubs the item repository; only ApplyEnrichment matters here
type fakeItemRepo struct {
	applied     []*domain.EnrichmentData
	appliedIDs  []int64
	applyResult error
}

func (r *fakeItemRepo) GetByUUID(ctx context.Context, userID int64, id uuid.UUID) (*domain.WishItem, error) {
	return nil, domain.ErrNotFound
}
func (r *fakeItemRepo) ListByUser(ctx context.Context, userID int64, filter domain.ItemFilter) ([]*domain.WishItem, int, error) {
	return nil, 0, nil
}
func (r *fakeItemRepo) Create(ctx context.Context, item *domain.WishItem) error { return nil }
func (r *fakeItemRepo) Update(ctx context.Context, item *domain.WishItem) error { return nil }
func (r *fakeItemRepo) SoftDelete(ctx context.Context, userID int64, id uuid.UUID) error {
	return nil
}
func (r *fakeItemRepo) ApplyEnrichment(ctx context.Context, itemID int64, data *domain.EnrichmentData) error {
	r.applied = append(r.applied, data)
	r.appliedIDs = append(r.appliedIDs, itemID)
	return r.applyResult
}

func newTestProcessor(t *testing.T, itemRepo *fakeItemRepo, queue *fakeQueue) *JobProcessor {
	t.Helper()
	fetcher := crawler.NewFetcher(5*time.Second, "", testLogger())
	c := crawler.New(fetcher, crawler.DefaultBackend, testLogger())
	images := crawler.NewImageResolver(fetcher, t.TempDir(), testLogger())
	return NewJobProcessor(testLogger(), c, images, itemRepo, queue, mailer.NewLogMailer(testLogger()))
}

func payloadOf(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return m
}

func TestProcessRetrieveMetadataChainsImageStage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Blue Kettle" />
			<meta property="og:description" content="Whistles" />
			<meta property="og:image" content="https://shop.example/1.jpg" />
			<meta property="og:image" content="https://shop.example/2.jpg" />
		</head></html>`))
	}))
	defer server.Close()

	queue := &fakeQueue{}
	p := newTestProcessor(t, &fakeItemRepo{}, queue)

	payload := payloadOf(t, &domain.EnrichmentRequest{SourceURL: server.URL, ItemID: 42})
	if err := p.ProcessRetrieveMetadata(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("ProcessRetrieveMetadata() error = %v", err)
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(queue.enqueued))
	}
	next := queue.enqueued[0]
	if next.jobType != domain.JobTypeRetrieveImage {
		t.Errorf("next job type = %q, want %q", next.jobType, domain.JobTypeRetrieveImage)
	}
	if next.payload["title"] != "Blue Kettle" {
		t.Errorf("title = %v, want %q", next.payload["title"], "Blue Kettle")
	}
	// First og:image wins
	if next.payload["image_url"] != "https://shop.example/1.jpg" {
		t.Errorf("image_url = %v, want first og:image", next.payload["image_url"])
	}
}

func TestProcessRetrieveMetadataSkipImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Blue Kettle" />
			<meta property="og:image" content="https://shop.example/1.jpg" />
		</head></html>`))
	}))
	defer server.Close()

	queue := &fakeQueue{}
	p := newTestProcessor(t, &fakeItemRepo{}, queue)

	payload := payloadOf(t, &domain.EnrichmentRequest{SourceURL: server.URL, ItemID: 42, SkipImage: true})
	if err := p.ProcessRetrieveMetadata(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("ProcessRetrieveMetadata() error = %v", err)
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(queue.enqueued))
	}
	if queue.enqueued[0].jobType != domain.JobTypePersist {
		t.Errorf("next job type = %q, want %q", queue.enqueued[0].jobType, domain.JobTypePersist)
	}
	if _, ok := queue.enqueued[0].payload["image_url"]; ok {
		t.Error("image_url present despite skip_image")
	}
}

func TestProcessRetrieveMetadataNoImageGoesStraightToPersist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Blue Kettle" />
		</head></html>`))
	}))
	defer server.Close()

	queue := &fakeQueue{}
	p := newTestProcessor(t, &fakeItemRepo{}, queue)

	payload := payloadOf(t, &domain.EnrichmentRequest{SourceURL: server.URL, ItemID: 42})
	if err := p.ProcessRetrieveMetadata(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("ProcessRetrieveMetadata() error = %v", err)
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0].jobType != domain.JobTypePersist {
		t.Fatalf("expected a single persist job, got %+v", queue.enqueued)
	}
}

func TestProcessRetrieveMetadataEmptyPageFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>No OpenGraph here</title></head></html>`))
	}))
	defer server.Close()

	queue := &fakeQueue{}
	p := newTestProcessor(t, &fakeItemRepo{}, queue)

	payload := payloadOf(t, &domain.EnrichmentRequest{SourceURL: server.URL, ItemID: 42})
	if err := p.ProcessRetrieveMetadata(context.Background(), payload, testLogger()); err == nil {
		t.Fatal("ProcessRetrieveMetadata() on empty page = nil, want error for retry")
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("enqueued %d jobs after failure, want 0", len(queue.enqueued))
	}
}

func TestProcessRetrieveMetadataMissingFields(t *testing.T) {
	p := newTestProcessor(t, &fakeItemRepo{}, &fakeQueue{})

	if err := p.ProcessRetrieveMetadata(context.Background(), map[string]interface{}{}, testLogger()); err == nil {
		t.Error("missing source_url accepted")
	}
	payload := payloadOf(t, &domain.EnrichmentRequest{SourceURL: "https://shop.example"})
	if err := p.ProcessRetrieveMetadata(context.Background(), payload, testLogger()); err == nil {
		t.Error("missing item_id accepted")
	}
}

func TestProcessRetrieveImageSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	}))
	defer server.Close()

	queue := &fakeQueue{}
	p := newTestProcessor(t, &fakeItemRepo{}, queue)

	payload := payloadOf(t, &enrichmentJob{ItemID: 42, Title: "Blue Kettle", ImageURL: server.URL + "/kettle"})
	if err := p.ProcessRetrieveImage(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("ProcessRetrieveImage() error = %v", err)
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0].jobType != domain.JobTypePersist {
		t.Fatalf("expected a single persist job, got %+v", queue.enqueued)
	}
	imagePath, _ := queue.enqueued[0].payload["image_path"].(string)
	if imagePath == "" {
		t.Fatal("persist payload missing image_path")
	}
	if filepath.Base(imagePath) != "kettle.jpg" {
		t.Errorf("image_path basename = %q, want %q", filepath.Base(imagePath), "kettle.jpg")
	}
	if _, err := os.Stat(imagePath); err != nil {
		t.Errorf("downloaded image missing: %v", err)
	}
}

func TestProcessRetrieveImageHTTPErrorPersistsWithoutImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	queue := &fakeQueue{}
	p := newTestProcessor(t, &fakeItemRepo{}, queue)

	payload := payloadOf(t, &enrichmentJob{ItemID: 42, Title: "Blue Kettle", ImageURL: server.URL + "/gone.jpg"})
	if err := p.ProcessRetrieveImage(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("ProcessRetrieveImage() error = %v, want nil on HTTP error", err)
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0].jobType != domain.JobTypePersist {
		t.Fatalf("expected a single persist job, got %+v", queue.enqueued)
	}
	if _, ok := queue.enqueued[0].payload["image_path"]; ok {
		t.Error("image_path present after failed image fetch")
	}
	// The rest of the data passes through unchanged
	if queue.enqueued[0].payload["title"] != "Blue Kettle" {
		t.Errorf("title = %v, want %q", queue.enqueued[0].payload["title"], "Blue Kettle")
	}
}

func TestProcessRetrieveImageTransientFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	queue := &fakeQueue{}
	p := newTestProcessor(t, &fakeItemRepo{}, queue)

	payload := payloadOf(t, &enrichmentJob{ItemID: 42, ImageURL: url + "/kettle.jpg"})
	if err := p.ProcessRetrieveImage(context.Background(), payload, testLogger()); err == nil {
		t.Fatal("ProcessRetrieveImage() on dead server = nil, want error for retry")
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("enqueued %d jobs after transient failure, want 0", len(queue.enqueued))
	}
}

func TestProcessPersistAppliesAndCleansUp(t *testing.T) {
	itemRepo := &fakeItemRepo{}
	p := newTestProcessor(t, itemRepo, &fakeQueue{})

	tempFile := filepath.Join(t.TempDir(), "kettle.jpg")
	if err := os.WriteFile(tempFile, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	payload := payloadOf(t, &enrichmentJob{ItemID: 42, Title: "Blue Kettle", ImagePath: tempFile})
	if err := p.ProcessPersist(context.Background(), payload, testLogger()); err != nil {
		t.Fatalf("ProcessPersist() error = %v", err)
	}

	if len(itemRepo.applied) != 1 {
		t.Fatalf("ApplyEnrichment called %d times, want 1", len(itemRepo.applied))
	}
	if itemRepo.appliedIDs[0] != 42 {
		t.Errorf("applied item id = %d, want 42", itemRepo.appliedIDs[0])
	}
	if itemRepo.applied[0].Title != "Blue Kettle" {
		t.Errorf("applied title = %q, want %q", itemRepo.applied[0].Title, "Blue Kettle")
	}
	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("temp image not removed after successful persist")
	}
}

func TestProcessPersistMissingItemIsPermanent(t *testing.T) {
	itemRepo := &fakeItemRepo{applyResult: domain.ErrNotFound}
	p := newTestProcessor(t, itemRepo, &fakeQueue{})

	tempFile := filepath.Join(t.TempDir(), "kettle.jpg")
	if err := os.WriteFile(tempFile, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	payload := payloadOf(t, &enrichmentJob{ItemID: 42, ImagePath: tempFile})
	err := p.ProcessPersist(context.Background(), payload, testLogger())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ProcessPersist() error = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("temp image not removed after permanent failure")
	}
}

func TestProcessPersistRetryableFailureKeepsTempFile(t *testing.T) {
	itemRepo := &fakeItemRepo{applyResult: errors.New("connection reset")}
	p := newTestProcessor(t, itemRepo, &fakeQueue{})

	tempFile := filepath.Join(t.TempDir(), "kettle.jpg")
	if err := os.WriteFile(tempFile, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	payload := payloadOf(t, &enrichmentJob{ItemID: 42, ImagePath: tempFile})
	if err := p.ProcessPersist(context.Background(), payload, testLogger()); err == nil {
		t.Fatal("ProcessPersist() = nil, want error for retry")
	}
	if _, err := os.Stat(tempFile); err != nil {
		t.Error("temp image removed despite retryable failure")
	}
}
