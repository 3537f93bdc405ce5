package localdir

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/source"
)

// ManifestFileName is an optional JSONL file that pins categories for files whose
// extension is ambiguous or unknown.
const ManifestFileName = "manifest.jsonl"

// ManifestItem represents an item in the manifest.jsonl file.
type ManifestItem struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
}

var extensionCategories = map[string]domain.MediaCategory{
	".jpg":  domain.CategoryImages,
	".jpeg": domain.CategoryImages,
	".png":  domain.CategoryImages,
	".gif":  domain.CategoryImages,
	".webp": domain.CategoryImages,
	".heic": domain.CategoryImages,
	".mp4":  domain.CategoryVideos,
	".mov":  domain.CategoryVideos,
	".webm": domain.CategoryVideos,
	".m4v":  domain.CategoryVideos,
	".mp3":  domain.CategoryAudios,
	".m4a":  domain.CategoryAudios,
	".wav":  domain.CategoryAudios,
	".ogg":  domain.CategoryAudios,
	".aac":  domain.CategoryAudios,
}

// CategoryForName maps a file name onto an uploadable category by extension.
func CategoryForName(name string) (domain.MediaCategory, bool) {
	cat, ok := extensionCategories[strings.ToLower(filepath.Ext(name))]
	return cat, ok
}

// Adapter implements the Source interface for a local directory tree.
// Hidden files and files with no known category are skipped.
type Adapter struct {
	root   string
	items  []source.MediaItem
	loaded bool
}

// NewAdapter creates a new directory adapter rooted at root.
func NewAdapter(root string) *Adapter {
	return &Adapter{root: root}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "dir:" + a.root
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Directory (%s)", a.root)
}

// FetchBatch fetches a batch of files. The cursor is an index into the sorted file list.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.MediaItem, string, error) {
	if !a.loaded {
		if err := a.loadItems(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to scan %s: %w", a.root, err)
		}
		a.loaded = true
	}

	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil || startIndex < 0 {
			return nil, "", fmt.Errorf("invalid cursor: %q", cursor)
		}
	}
	if startIndex >= len(a.items) {
		return []source.MediaItem{}, "", nil
	}
	if limit <= 0 {
		limit = len(a.items)
	}

	endIndex := startIndex + limit
	if endIndex > len(a.items) {
		endIndex = len(a.items)
	}

	nextCursor := ""
	if endIndex < len(a.items) {
		nextCursor = strconv.Itoa(endIndex)
	}
	return a.items[startIndex:endIndex], nextCursor, nil
}

func (a *Adapter) loadItems(ctx context.Context) error {
	pinned, err := a.readManifest()
	if err != nil {
		return err
	}

	a.items = []source.MediaItem{}
	err = filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != a.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || name == ManifestFileName {
			return nil
		}

		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		cat, ok := pinned[rel]
		if !ok {
			cat, ok = CategoryForName(name)
		}
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		a.items = append(a.items, source.MediaItem{
			SourceID:  rel,
			Name:      name,
			Category:  cat,
			LocalPath: path,
			Size:      info.Size(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(a.items, func(i, j int) bool {
		return a.items[i].SourceID < a.items[j].SourceID
	})
	return nil
}

// readManifest loads category pins keyed by slash-separated relative path.
func (a *Adapter) readManifest() (map[string]domain.MediaCategory, error) {
	pinned := make(map[string]domain.MediaCategory)

	file, err := os.Open(filepath.Join(a.root, ManifestFileName))
	if os.IsNotExist(err) {
		return pinned, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var item ManifestItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			continue
		}
		cat, err := domain.ParseMediaCategory(item.Category)
		if err != nil || !cat.UserUploadable() {
			continue
		}
		pinned[filepath.ToSlash(item.Filename)] = cat
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	return pinned, nil
}
