package render

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/storage"
)

// MediaSource resolves the media URLs of a wish namespace.
type MediaSource interface {
	SignedURLs(ctx context.Context, wishID string, category domain.MediaCategory) ([]string, error)
	PublicURLs(ctx context.Context, wishID string, category domain.MediaCategory) ([]string, error)
}

// Page is the data every template receives.
type Page struct {
	ID             string
	Template       string
	Content        domain.WishContent
	SenderName     string
	SenderLocation string
	Images         []string
	Videos         []string
	Audios         []string
	Generated      []string
	Countdown      *Countdown
	Message        string
}

// Countdown is set for records with a parseable event date.
type Countdown struct {
	Date time.Time
	Days int
	Past bool
}

// NewPage resolves every media category once for the record.
// Missing categories render as empty galleries; listing failures are logged, not fatal.
func NewPage(ctx context.Context, wish *domain.Wish, media MediaSource, now time.Time) *Page {
	c := wish.Content
	p := &Page{
		ID:             wish.ID,
		Template:       TemplateName(c),
		Content:        c,
		SenderName:     c.SenderName(),
		SenderLocation: c.SenderLocation(),
	}
	if p.Template == NotRecognizedTemplate {
		p.Message = NotRecognizedMessage
	}

	if media != nil {
		p.Images = collect(ctx, wish.ID, domain.CategoryImages, media.SignedURLs)
		p.Videos = collect(ctx, wish.ID, domain.CategoryVideos, media.SignedURLs)
		p.Audios = collect(ctx, wish.ID, domain.CategoryAudios, media.SignedURLs)
		p.Generated = collect(ctx, wish.ID, domain.CategoryGeneratedImages, media.PublicURLs)
	}

	if t, ok := c.EventTime(); ok {
		days := int(math.Ceil(t.Sub(now).Hours() / 24))
		p.Countdown = &Countdown{Date: t, Days: days, Past: days < 0}
		if days < 0 {
			p.Countdown.Days = -days
		}
	}
	return p
}

func collect(ctx context.Context, wishID string, cat domain.MediaCategory, list func(context.Context, string, domain.MediaCategory) ([]string, error)) []string {
	urls, err := list(ctx, wishID, cat)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.CtxWarn(ctx, "Failed to list %s for page: %v", cat, err)
		}
		return nil
	}
	return urls
}
