package localdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/wishpage/internal/domain"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestAdapterCategorizesAndPages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.JPG", "img")
	writeFile(t, root, "trip/clip.mov", "vid")
	writeFile(t, root, "song.mp3", "aud")
	writeFile(t, root, "notes.txt", "skip")
	writeFile(t, root, ".hidden/x.png", "skip")
	writeFile(t, root, "voice.bin", "pinned")
	writeFile(t, root, ManifestFileName, `{"filename":"voice.bin","category":"audio"}
not json
{"filename":"notes.txt","category":"generated-images"}
`)

	a := NewAdapter(root)
	ctx := context.Background()

	first, next, err := a.FetchBatch(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "2", next)

	rest, next, err := a.FetchBatch(ctx, next, 10)
	require.NoError(t, err)
	assert.Empty(t, next)

	got := map[string]domain.MediaCategory{}
	for _, it := range append(first, rest...) {
		got[it.SourceID] = it.Category
	}
	assert.Equal(t, map[string]domain.MediaCategory{
		"b.JPG":         domain.CategoryImages,
		"song.mp3":      domain.CategoryAudios,
		"trip/clip.mov": domain.CategoryVideos,
		"voice.bin":     domain.CategoryAudios,
	}, got)
}

func TestAdapterErrors(t *testing.T) {
	_, _, err := NewAdapter(filepath.Join(t.TempDir(), "missing")).FetchBatch(context.Background(), "", 1)
	assert.Error(t, err)

	a := NewAdapter(t.TempDir())
	items, next, err := a.FetchBatch(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, next)

	_, _, err = a.FetchBatch(context.Background(), "abc", 5)
	assert.Error(t, err)
}
