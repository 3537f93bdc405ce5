package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageListOrderAndNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("http://localhost:8080")

	_, err := m.List(ctx, "w1/images/")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Upload(ctx, "w1/images/b.png", strings.NewReader("b"), 1, "image/png"))
	require.NoError(t, m.Upload(ctx, "w1/images/a.png", strings.NewReader("a"), 1, "image/png"))
	require.NoError(t, m.Upload(ctx, "w1/videos/c.mp4", strings.NewReader("c"), 1, "video/mp4"))

	objs, err := m.List(ctx, "w1/images/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "w1/images/a.png", objs[0].Key)
	assert.Equal(t, "w1/images/b.png", objs[1].Key)

	ok, err := m.Exists(ctx, "w1/videos/c.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "w1/videos/c.mp4"))
	_, err = m.Download(ctx, "w1/videos/c.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorageServesSignedURL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("")
	srv := httptest.NewServer(m)
	defer srv.Close()
	m.baseURL = srv.URL

	payload := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	require.NoError(t, m.Upload(ctx, "w1/images/a.png", bytes.NewReader(payload), int64(len(payload)), "image/png"))

	signed, err := m.PresignGet(ctx, "w1/images/a.png", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, srv.URL+MemoryMediaPath+"w1/images/a.png?"))

	resp, err := http.Get(signed)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, payload, body)

	resp, err = http.Get(strings.Replace(signed, "signature=", "signature=00", 1))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMemoryStorageRejectsExpiredURL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("")
	srv := httptest.NewServer(m)
	defer srv.Close()
	m.baseURL = srv.URL

	require.NoError(t, m.Upload(ctx, "k", strings.NewReader("x"), 1, "text/plain"))

	expires := strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)
	expired := srv.URL + MemoryMediaPath + "k?expires=" + expires + "&signature=" + m.sign("k", expires)
	resp, err := http.Get(expired)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get(srv.URL + MemoryMediaPath + "k")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMemoryStorageRequiresSignatureForPrivateKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("")
	srv := httptest.NewServer(m)
	defer srv.Close()
	m.baseURL = srv.URL

	require.NoError(t, m.Upload(ctx, "w1/images/a.png", strings.NewReader("secret"), 6, "image/png"))
	require.NoError(t, m.Upload(ctx, "w1/generated-images/g.png", strings.NewReader("public"), 6, "image/png"))

	signed, err := m.PresignGet(ctx, "w1/images/a.png", time.Minute)
	require.NoError(t, err)
	stripped := signed[:strings.Index(signed, "?")]
	assert.Equal(t, m.GetURL("w1/images/a.png"), stripped)

	tests := []struct {
		name   string
		url    string
		status int
		body   string
	}{
		{"signed private", signed, http.StatusOK, "secret"},
		{"unsigned private", stripped, http.StatusForbidden, ""},
		{"unsigned video", m.GetURL("w1/videos/v.mp4"), http.StatusForbidden, ""},
		{"category-like name", m.GetURL("generated-images/x"), http.StatusForbidden, ""},
		{"unsigned generated", m.GetURL("w1/generated-images/g.png"), http.StatusOK, "public"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(tt.url)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				assert.Equal(t, tt.body, string(body))
			}
		})
	}

	m.now = func() time.Time { return time.Now().Add(time.Hour) }
	resp, err := http.Get(signed)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNewStorageMemory(t *testing.T) {
	s, err := NewStorage(&S3Config{Type: StorageTypeMemory, PublicURL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, "http://x/media/k", s.GetURL("k"))
}
