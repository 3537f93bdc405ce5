package domain

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// MediaCategory is the second path segment of a media key: {wishId}/{category}/{name}.
type MediaCategory string

const (
	CategoryImages          MediaCategory = "images"
	CategoryVideos          MediaCategory = "videos"
	CategoryAudios          MediaCategory = "audios"
	CategoryGeneratedImages MediaCategory = "generated-images"
)

// ErrUnknownCategory is returned for a category outside the four known ones.
var ErrUnknownCategory = errors.New("unknown media category")

// ParseMediaCategory validates a raw category string.
// The singular forms used by upload forms ("image", "video", "audio") are accepted.
func ParseMediaCategory(raw string) (MediaCategory, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "images", "image":
		return CategoryImages, nil
	case "videos", "video":
		return CategoryVideos, nil
	case "audios", "audio":
		return CategoryAudios, nil
	case "generated-images", "generated-image", "generated":
		return CategoryGeneratedImages, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
}

// UserUploadable reports whether end users may upload into the category directly.
func (c MediaCategory) UserUploadable() bool {
	return c == CategoryImages || c == CategoryVideos || c == CategoryAudios
}

// ErrInvalidWishID is returned for an id that cannot be a single key segment.
var ErrInvalidWishID = errors.New("invalid wish id")

const maxWishIDLength = 64

// ValidateWishID checks that id can be the first segment of a media key without
// reaching into another wish's namespace.
func ValidateWishID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidWishID)
	case len(id) > maxWishIDLength,
		strings.ContainsAny(id, "/\\?#"),
		strings.Contains(id, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidWishID, id)
	}
	return nil
}

// MediaPrefix returns the listing prefix for a wish's category, with trailing slash.
func MediaPrefix(wishID string, category MediaCategory) string {
	return wishID + "/" + string(category) + "/"
}

// MediaKey builds the object key for a media asset.
// The name is reduced to its base element so it cannot escape the namespace.
func MediaKey(wishID string, category MediaCategory, name string) string {
	return MediaPrefix(wishID, category) + SanitizeFileName(name)
}

// SanitizeFileName strips directories and characters that break object keys or URLs.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// MediaAsset is a stored blob under a wish namespace.
type MediaAsset struct {
	Key         string        `json:"key"`
	WishID      string        `json:"wish_id"`
	Category    MediaCategory `json:"category"`
	Name        string        `json:"name"`
	ContentType string        `json:"content_type,omitempty"`
	Size        int64         `json:"size"`
}
