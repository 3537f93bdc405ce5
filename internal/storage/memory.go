package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryMediaPath is where MemoryStorage expects to be mounted for URL serving.
const MemoryMediaPath = "/media/"

// MemoryStorage keeps objects in process memory. It backs local development and tests,
// and serves its own signed and public URLs through ServeHTTP.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	secret  []byte
	now     func() time.Time
}

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// NewMemoryStorage creates an empty store whose URLs start with baseURL + MemoryMediaPath.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}
}

// Upload stores a copy of the reader's content.
func (m *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, modified: m.now()}
	m.mu.Unlock()
	return nil
}

// Download returns a reader over a copy of the object.
func (m *MemoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// List returns objects under prefix in key order.
func (m *MemoryStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	var objects []ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
	}
	m.mu.RUnlock()

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no objects under %s", ErrNotFound, prefix)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// PresignGet returns an HMAC-signed URL that ServeHTTP accepts until it expires.
func (m *MemoryStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	expires := strconv.FormatInt(m.now().Add(ttl).Unix(), 10)
	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", m.sign(key, expires))
	return m.GetURL(key) + "?" + q.Encode(), nil
}

// GetURL returns the unsigned URL of key.
func (m *MemoryStorage) GetURL(key string) string {
	return m.baseURL + MemoryMediaPath + key
}

// Delete removes an object. Deleting a missing key is not an error.
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is stored.
func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	return ok, nil
}

// PublicCategory is the one key category served without a signature ({wishID}/generated-images/{name}).
const PublicCategory = "generated-images"

func isPublicKey(key string) bool {
	parts := strings.Split(key, "/")
	return len(parts) >= 3 && parts[1] == PublicCategory
}

// ServeHTTP serves GET MemoryMediaPath{key}. Keys outside PublicCategory need a valid, unexpired signature.
func (m *MemoryStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idx := strings.Index(r.URL.Path, MemoryMediaPath)
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	key := r.URL.Path[idx+len(MemoryMediaPath):]

	sig := r.URL.Query().Get("signature")
	switch {
	case sig != "":
		expires := r.URL.Query().Get("expires")
		exp, err := strconv.ParseInt(expires, 10, 64)
		if err != nil || m.now().Unix() > exp || !hmac.Equal([]byte(sig), []byte(m.sign(key, expires))) {
			http.Error(w, "invalid or expired signature", http.StatusForbidden)
			return
		}
	case !isPublicKey(key):
		http.Error(w, "signature required", http.StatusForbidden)
		return
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	http.ServeContent(w, r, key, obj.modified, bytes.NewReader(obj.data))
}

func (m *MemoryStorage) sign(key, expires string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(key + "\n" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}
