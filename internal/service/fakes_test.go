package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/repository"
	"github.com/timmy/wishpage/internal/storage"
)

var errUpstream = errors.New("upstream unavailable")

type fakeChat struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeChat) ChatJSON(ctx context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

type fakeDescriber struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool // image payloads that fail
}

func (f *fakeDescriber) DescribeImage(ctx context.Context, system, user string, data []byte, mimeType string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail[string(data)] {
		return "", errUpstream
	}
	return "  a photo of " + string(data) + "\n", nil
}

type fakeImages struct {
	calls   atomic.Int32
	prompts sync.Map
	failAll bool
	failOn  func(prompt string) bool
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	n := f.calls.Add(1)
	f.prompts.Store(prompt, true)
	if f.failAll || (f.failOn != nil && f.failOn(prompt)) {
		return nil, errUpstream
	}
	return []byte(fmt.Sprintf("\x89PNG\r\n\x1a\nimage-%d", n)), nil
}

type fakeSongs struct {
	calls atomic.Int32
	last  SongRequest
	err   error
}

func (f *fakeSongs) GenerateSong(ctx context.Context, req SongRequest) ([]byte, error) {
	n := f.calls.Add(1)
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf("ID3song-%d", n)), nil
}

type fakeWishes struct {
	mu     sync.Mutex
	wishes map[string]*domain.Wish
}

func newFakeWishes(ws ...*domain.Wish) *fakeWishes {
	f := &fakeWishes{wishes: make(map[string]*domain.Wish)}
	for _, w := range ws {
		f.wishes[w.ID] = w
	}
	return f
}

func (f *fakeWishes) Create(ctx context.Context, w *domain.Wish) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.ID = uuid.New().String()
	w.CreatedAt = time.Now()
	f.wishes[w.ID] = w
	return nil
}

func (f *fakeWishes) GetByID(ctx context.Context, id string) (*domain.Wish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wishes[id]
	if !ok {
		return nil, repository.ErrWishNotFound
	}
	return w, nil
}

func (f *fakeWishes) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.wishes[id]
	return ok, nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []*domain.GenerationJob
}

func (f *fakeJobs) Start(ctx context.Context, wishID string, kind domain.JobKind, total int) (*domain.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := &domain.GenerationJob{ID: uuid.New().String(), WishID: wishID, Kind: kind, TotalItems: total, Status: domain.JobStatusRunning}
	f.jobs = append(f.jobs, job)
	return job, nil
}

func (f *fakeJobs) Save(ctx context.Context, job *domain.GenerationJob) error { return nil }

func (f *fakeJobs) ListByWish(ctx context.Context, wishID string, limit int) ([]domain.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.GenerationJob
	for _, j := range f.jobs {
		if j.WishID == wishID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeJobs) last() *domain.GenerationJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return nil
	}
	return f.jobs[len(f.jobs)-1]
}

type fixture struct {
	store        *storage.MemoryStorage
	media        *MediaService
	pool         *FanOut
	describer    *fakeDescriber
	images       *fakeImages
	songs        *fakeSongs
	wishes       *fakeWishes
	jobs         *fakeJobs
	descriptions *DescriptionService
	derivatives  *DerivativeService
}

func newFixture(ws ...*domain.Wish) *fixture {
	f := &fixture{
		store:     storage.NewMemoryStorage("http://media.test"),
		describer: &fakeDescriber{fail: map[string]bool{}},
		images:    &fakeImages{},
		songs:     &fakeSongs{},
		wishes:    newFakeWishes(ws...),
		jobs:      &fakeJobs{},
	}
	f.media = NewMediaService(f.store, 0)
	f.pool = NewFanOut(3, 0, 1)
	jobs := NewJobService(f.jobs)
	f.descriptions = NewDescriptionService(f.media, f.describer, f.pool, jobs)
	f.derivatives = NewDerivativeService(f.media, f.images, f.songs, f.wishes, f.pool, jobs, &DerivativeConfig{StyleSuffix: "cute style"})
	return f
}

func (f *fixture) put(key, body string) {
	_ = f.store.Upload(context.Background(), key, strings.NewReader(body), int64(len(body)), "")
}
