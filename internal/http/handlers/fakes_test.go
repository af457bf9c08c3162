package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"capellawish/internal/domain"

	"github.com/google/uuid"
)

func timeNowUTC() time.Time {
	return time.Now().UTC()
}

// fakeUserRepo is an in-memory user store keyed by id
type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) SetEmailVerified(ctx context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

// fakeTokenRepo stores sessions and one-time tokens in maps
type fakeTokenRepo struct {
	sessions map[string]int64
	oneTime  map[string]int64
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		sessions: make(map[string]int64),
		oneTime:  make(map[string]int64),
	}
}

func (r *fakeTokenRepo) CreateSession(ctx context.Context, token string, userID int64) error {
	r.sessions[token] = userID
	return nil
}

func (r *fakeTokenRepo) GetSession(ctx context.Context, token string) (int64, error) {
	if id, ok := r.sessions[token]; ok {
		return id, nil
	}
	return 0, domain.ErrNotFound
}

func (r *fakeTokenRepo) DeleteSession(ctx context.Context, token string) error {
	delete(r.sessions, token)
	return nil
}

func (r *fakeTokenRepo) CreateOneTime(ctx context.Context, purpose, token string, userID int64) error {
	r.oneTime[purpose+":"+token] = userID
	return nil
}

func (r *fakeTokenRepo) ConsumeOneTime(ctx context.Context, purpose, token string) (int64, error) {
	key := purpose + ":" + token
	id, ok := r.oneTime[key]
	if !ok {
		return 0, domain.ErrNotFound
	}
	delete(r.oneTime, key)
	return id, nil
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

// fakeItemRepo is an in-memory item store
type fakeItemRepo struct {
	items  map[uuid.UUID]*domain.WishItem
	nextID int64
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]*domain.WishItem), nextID: 1}
}

func (r *fakeItemRepo) GetByUUID(ctx context.Context, userID int64, id uuid.UUID) (*domain.WishItem, error) {
	item, ok := r.items[id]
	if !ok || item.UserID != userID || item.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (r *fakeItemRepo) ListByUser(ctx context.Context, userID int64, filter domain.ItemFilter) ([]*domain.WishItem, int, error) {
	var result []*domain.WishItem
	for _, item := range r.items {
		if item.UserID != userID || item.IsDeleted() {
			continue
		}
		if filter.StarredOnly && !item.IsStarred {
			continue
		}
		result = append(result, item)
	}
	return result, len(result), nil
}

func (r *fakeItemRepo) Create(ctx context.Context, item *domain.WishItem) error {
	seen := make(map[string]bool)
	for _, s := range item.Sources {
		if seen[s.SourceURL] {
			return domain.ErrDuplicate
		}
		seen[s.SourceURL] = true
	}
	item.ID = r.nextID
	r.nextID++
	item.UUID = uuid.New()
	r.items[item.UUID] = item
	return nil
}

func (r *fakeItemRepo) Update(ctx context.Context, item *domain.WishItem) error {
	if _, ok := r.items[item.UUID]; !ok {
		return domain.ErrNotFound
	}
	r.items[item.UUID] = item
	return nil
}

func (r *fakeItemRepo) SoftDelete(ctx context.Context, userID int64, id uuid.UUID) error {
	item, ok := r.items[id]
	if !ok || item.UserID != userID || item.IsDeleted() {
		return domain.ErrNotFound
	}
	now := timeNowUTC()
	item.DeletedAt = &now
	return nil
}

func (r *fakeItemRepo) ApplyEnrichment(ctx context.Context, itemID int64, data *domain.EnrichmentData) error {
	return fmt.Errorf("not implemented in fake")
}

// fakeListRepo is an in-memory list store
type fakeListRepo struct {
	lists  map[uuid.UUID]*domain.List
	nextID int64
}

func newFakeListRepo() *fakeListRepo {
	return &fakeListRepo{lists: make(map[uuid.UUID]*domain.List), nextID: 1}
}

func (r *fakeListRepo) GetByUUID(ctx context.Context, userID int64, id uuid.UUID) (*domain.List, error) {
	list, ok := r.lists[id]
	if !ok || list.UserID != userID || list.IsDeleted {
		return nil, domain.ErrNotFound
	}
	return list, nil
}

func (r *fakeListRepo) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*domain.List, int, error) {
	var result []*domain.List
	for _, list := range r.lists {
		if list.UserID != userID || list.IsDeleted {
			continue
		}
		result = append(result, list)
	}
	return result, len(result), nil
}

func (r *fakeListRepo) Create(ctx context.Context, list *domain.List) error {
	for _, existing := range r.lists {
		if existing.UserID == list.UserID && existing.Title == list.Title && !existing.IsDeleted {
			return domain.ErrDuplicate
		}
	}
	list.ID = r.nextID
	r.nextID++
	list.UUID = uuid.New()
	r.lists[list.UUID] = list
	return nil
}

func (r *fakeListRepo) Update(ctx context.Context, list *domain.List) error {
	if _, ok := r.lists[list.UUID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.lists {
		if existing.UUID != list.UUID && existing.UserID == list.UserID &&
			existing.Title == list.Title && !existing.IsDeleted {
			return domain.ErrDuplicate
		}
	}
	r.lists[list.UUID] = list
	return nil
}

func (r *fakeListRepo) SoftDelete(ctx context.Context, userID int64, id uuid.UUID) error {
	list, ok := r.lists[id]
	if !ok || list.UserID != userID || list.IsDeleted {
		return domain.ErrNotFound
	}
	list.IsDeleted = true
	return nil
}

// fakeBlobRepo is an in-memory content-addressed blob store
type fakeBlobRepo struct {
	blobs   map[string]*domain.BlobImage
	nextID  int64
	creates int
}

func newFakeBlobRepo() *fakeBlobRepo {
	return &fakeBlobRepo{blobs: make(map[string]*domain.BlobImage), nextID: 1}
}

func (r *fakeBlobRepo) GetByHash(ctx context.Context, hash string) (*domain.BlobImage, error) {
	blob, ok := r.blobs[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *blob
	return &copied, nil
}

func (r *fakeBlobRepo) Create(ctx context.Context, blob *domain.BlobImage) error {
	r.creates++
	if existing, ok := r.blobs[blob.SHA256Hash]; ok {
		*blob = *existing
		return nil
	}
	blob.ID = r.nextID
	r.nextID++
	blob.UploadedAt = timeNowUTC()
	stored := *blob
	r.blobs[blob.SHA256Hash] = &stored
	return nil
}
