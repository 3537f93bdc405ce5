package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/wishpage/internal/api/middleware"
	"github.com/timmy/wishpage/internal/config"
	"github.com/timmy/wishpage/internal/render"
	"github.com/timmy/wishpage/internal/repository"
	"github.com/timmy/wishpage/internal/service"
	"github.com/timmy/wishpage/internal/storage"
)

const baseURL = "http://wish.test"

const contentJSON = `{
  "title": "Happy Birthday, Ana!",
  "recipient": "Ana",
  "about": "Ana turns 30",
  "paragraph": "Thirty looks great on you.",
  "short_paragraph": "Happy 30th!",
  "quotes": ["Age is merely the number of years the world has been enjoying you."],
  "wishes": ["Joy", "Adventure"],
  "hobbies": ["climbing"],
  "characteristics": ["brave"],
  "senders": "Sam|Lisbon",
  "componentType": "%s",
  "gender": "female"
}`

type stubChat struct{ componentType string }

func (s stubChat) ChatJSON(ctx context.Context, system, user string) (string, error) {
	return fmt.Sprintf(contentJSON, s.componentType), nil
}

type stubDescriber struct{}

func (stubDescriber) DescribeImage(ctx context.Context, system, user string, data []byte, mimeType string) (string, error) {
	return "a dog in a park", nil
}

type stubImages struct{ calls atomic.Int32 }

func (s *stubImages) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	n := s.calls.Add(1)
	return []byte(fmt.Sprintf("\x89PNG\r\n\x1a\nillustration-%d", n)), nil
}

type stubSongs struct{ calls atomic.Int32 }

func (s *stubSongs) GenerateSong(ctx context.Context, req service.SongRequest) ([]byte, error) {
	n := s.calls.Add(1)
	return []byte(fmt.Sprintf("ID3\x04\x00song-%d", n)), nil
}

type testServer struct {
	router *gin.Engine
	mem    *storage.MemoryStorage
	images *stubImages
	songs  *stubSongs
}

func newTestServer(t *testing.T, componentType string) *testServer {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "wishes.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	wishRepo := repository.NewWishRepository(db)
	jobs := service.NewJobService(repository.NewJobRepository(db))
	mem := storage.NewMemoryStorage(baseURL)
	media := service.NewMediaService(mem, time.Hour)
	pool := service.NewFanOut(3, 0, 0)
	images := &stubImages{}
	songs := &stubSongs{}

	renderer, err := render.New()
	require.NoError(t, err)

	svc := &Services{
		Wishes:       service.NewWishService(wishRepo, service.NewContentGenerator(stubChat{componentType: componentType}), baseURL),
		Media:        media,
		Descriptions: service.NewDescriptionService(media, stubDescriber{}, pool, jobs),
		Derivatives:  service.NewDerivativeService(media, images, songs, wishRepo, pool, jobs, &service.DerivativeConfig{StyleSuffix: "cute style"}),
		Jobs:         jobs,
		Idempotency:  service.NewIdempotency(time.Minute),
		Renderer:     renderer,
		DB:           sqlDB,
		MediaServer:  mem,
	}
	r := SetupRouter(svc, RouterConfig{
		Mode:           "test",
		CORS:           middleware.CORSConfig{AllowAllOrigins: true},
		MaxUploadBytes: 1 << 20,
	})
	return &testServer{router: r, mem: mem, images: images, songs: songs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

// fetch follows an absolute media URL back into the router.
func (s *testServer) fetch(t *testing.T, raw string) *httptest.ResponseRecorder {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return s.get(u.RequestURI())
}

func (s *testServer) createWish(t *testing.T) string {
	t.Helper()
	form := url.Values{"context": {"It's Ana's 30th birthday, she loves climbing. From Sam in Lisbon"}}
	req := httptest.NewRequest(http.MethodPost, "/api/gift-card", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, baseURL+"/wishes/"+resp.ID, resp.URL)
	return resp.ID
}

func (s *testServer) upload(t *testing.T, id, typ, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("id", id))
	require.NoError(t, mw.WriteField("type", typ))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/s3-upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func urls(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var out []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "birthday")
	w := s.get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestEmptyListingIsNotFound(t *testing.T) {
	s := newTestServer(t, "birthday")
	for _, path := range []string{"/api/s3-images", "/api/s3-videos", "/api/s3-audios", "/api/s3-generated-photos"} {
		w := s.get(path + "?id=nobody")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), `"error"`)

		assert.Equal(t, http.StatusBadRequest, s.get(path).Code, path)
	}
}

func TestUploadListFetchRoundTrip(t *testing.T) {
	s := newTestServer(t, "birthday")
	id := s.createWish(t)
	payload := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{7, 1, 9}, 100)...)

	w := s.upload(t, id, "image", "beach day.png", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"fileName":"beach_day.png","key":"`+id+`/images/beach_day.png","contentType":"image/png"}`, w.Body.String())

	w = s.get("/api/s3-images?id=" + id)
	require.Equal(t, http.StatusOK, w.Code)
	listed := urls(t, w)
	require.Len(t, listed, 1)
	assert.Contains(t, listed[0], "signature=")

	got := s.fetch(t, listed[0])
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, payload, got.Body.Bytes())

	// Other categories of the same wish stay empty.
	assert.Equal(t, http.StatusNotFound, s.get("/api/s3-videos?id="+id).Code)
}

func TestUploadValidation(t *testing.T) {
	s := newTestServer(t, "birthday")

	assert.Equal(t, http.StatusBadRequest, s.upload(t, "", "image", "a.png", []byte("x")).Code)
	assert.Equal(t, http.StatusBadRequest, s.upload(t, "w1", "document", "a.pdf", []byte("x")).Code)
	assert.Equal(t, http.StatusBadRequest, s.upload(t, "w1", "generated-images", "a.png", []byte("x")).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, s.upload(t, "w1", "video", "big.mp4", make([]byte, 2<<20)).Code)
}

func TestRejectsIDsOutsideNamespace(t *testing.T) {
	s := newTestServer(t, "birthday")

	assert.Equal(t, http.StatusBadRequest, s.upload(t, "w1/images", "image", "x.png", []byte("x")).Code)
	assert.Equal(t, http.StatusBadRequest, s.upload(t, "../w1", "image", "x.png", []byte("x")).Code)
	assert.Equal(t, http.StatusNotFound, s.get("/api/s3-images?id=w1").Code)

	assert.Equal(t, http.StatusBadRequest, s.get("/api/s3-images?id=w1/images").Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/api/wishes?id=..").Code)
	assert.Equal(t, http.StatusBadRequest, s.postJSON("/api/generate-description", `{"id":"w1/images"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.postJSON("/api/generate-songs", `{"id":"../w2","prompt":"p"}`).Code)
}

func TestWishLookupAndPage(t *testing.T) {
	s := newTestServer(t, "birthday")
	id := s.createWish(t)

	w := s.get("/api/wishes?id=" + id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"componentType":"birthday"`)
	assert.Equal(t, http.StatusNotFound, s.get("/api/wishes?id=missing").Code)

	w = s.get("/wishes/" + id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "Happy Birthday, Ana!")
	assert.Contains(t, body, "from Sam, Lisbon")
}

func TestUnknownComponentTypeFallsBack(t *testing.T) {
	s := newTestServer(t, "spaceship")
	id := s.createWish(t)

	w := s.get("/api/wishes?id=" + id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"componentType":"general"`)
	assert.NotContains(t, s.get("/wishes/"+id).Body.String(), render.NotRecognizedMessage)
}

func TestDescribeThenCutePhotos(t *testing.T) {
	s := newTestServer(t, "birthday")
	id := s.createWish(t)

	w := s.postJSON("/api/generate-description", `{"id":"`+id+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, s.upload(t, id, "images", "dog.png", []byte("\x89PNG\r\n\x1a\ndog")).Code)

	w = s.postJSON("/api/generate-description", `{"id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"descriptions":["a dog in a park"]}`, w.Body.String())

	w = s.postJSON("/api/generate-cute-photos", `{"id":"`+id+`","descriptions":["a dog in a park"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var photos struct {
		GeneratedImages []string `json:"generatedImages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &photos))
	assert.Len(t, photos.GeneratedImages, 6)
	assert.Equal(t, int32(6), s.images.calls.Load())

	w = s.get("/api/s3-generated-photos?id=" + id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, urls(t, w), 6)

	got := s.fetch(t, photos.GeneratedImages[0])
	require.Equal(t, http.StatusOK, got.Code)
	assert.True(t, bytes.HasPrefix(got.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, s.postJSON("/api/generate-cute-photos", `{"id":"`+id+`","descriptions":[" "]}`).Code)

	w = s.get("/api/jobs?id=" + id)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs struct {
		Jobs []map[string]interface{} `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs.Jobs, 2)
	assert.Equal(t, "completed", jobs.Jobs[0]["status"])
}

func TestGenerateSongsTwiceStoresTwoObjects(t *testing.T) {
	s := newTestServer(t, "birthday")
	id := s.createWish(t)
	body := `{"id":"` + id + `","prompt":"a birthday song for Ana","make_instrumental":false,"wait_audio":true}`

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.postJSON("/api/generate-songs", body).Code
		}(i)
	}
	wg.Wait()
	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)
	assert.Equal(t, int32(2), s.songs.calls.Load())

	w := s.get("/api/s3-audios?id=" + id)
	require.Equal(t, http.StatusOK, w.Code)
	listed := urls(t, w)
	require.Len(t, listed, 2)
	assert.NotEqual(t, listed[0], listed[1])

	first, err := io.ReadAll(s.fetch(t, listed[0]).Body)
	require.NoError(t, err)
	second, err := io.ReadAll(s.fetch(t, listed[1]).Body)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateSongsWithIdempotencyKeyRunsOnce(t *testing.T) {
	s := newTestServer(t, "birthday")
	id := s.createWish(t)
	body := `{"id":"` + id + `","prompt":"lullaby"}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/generate-songs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "retry-1")
		return s.do(req)
	}
	first, second := send(), send()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), s.songs.calls.Load())
}
