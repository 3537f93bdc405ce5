package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/wishpage/internal/logger"
)

// SongRequest is forwarded to the music service.
type SongRequest struct {
	Prompt           string `json:"prompt"`
	MakeInstrumental bool   `json:"make_instrumental"`
	WaitAudio        bool   `json:"wait_audio"`
}

// SongGenerator produces audio bytes for a song request.
type SongGenerator interface {
	GenerateSong(ctx context.Context, req SongRequest) ([]byte, error)
}

// MusicClient calls a suno-style music API: POST /api/generate, then GET /api/get?ids= until audio is ready.
type MusicClient struct {
	client       *resty.Client
	fetch        *resty.Client
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
}

// MusicConfig holds configuration for the music client.
type MusicConfig struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
}

// NewMusicClient creates a new MusicClient.
func NewMusicClient(cfg *MusicConfig) *MusicClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	return &MusicClient{
		client:       client,
		fetch:        resty.New().SetTimeout(timeout),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		timeout:      timeout,
		pollInterval: poll,
	}
}

type songClip struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	AudioURL string `json:"audio_url"`
}

// GenerateSong requests a song and downloads the first clip's audio.
// When the service answers before audio is ready, the clip is polled until it has a URL.
// The whole call is bounded by the configured timeout even when ctx has no deadline.
func (c *MusicClient) GenerateSong(parent context.Context, req SongRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var clips []songClip
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&clips).
		Post(c.baseURL + "/api/generate")
	if err != nil {
		return nil, fmt.Errorf("failed to call music API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("music API returned error: HTTP %d: %s", resp.StatusCode(), truncate(string(resp.Body()), 500))
	}
	if len(clips) == 0 {
		return nil, ErrNoAudio
	}

	clip := clips[0]
	for clip.AudioURL == "" {
		if clip.Status == "error" {
			return nil, fmt.Errorf("%w: clip %s failed", ErrNoAudio, clip.ID)
		}
		if clip.ID == "" {
			return nil, ErrNoAudio
		}
		logger.CtxDebug(ctx, "Waiting for clip %s (status %s)", clip.ID, clip.Status)
		select {
		case <-ctx.Done():
			return nil, c.waitErr(parent, clip.ID)
		case <-time.After(c.pollInterval):
		}
		if clip, err = c.getClip(ctx, clip.ID); err != nil {
			if ctx.Err() != nil {
				return nil, c.waitErr(parent, clip.ID)
			}
			return nil, err
		}
	}

	return downloadBytes(ctx, c.fetch, clip.AudioURL)
}

// waitErr distinguishes a caller cancellation from running out of time on our own deadline.
func (c *MusicClient) waitErr(parent context.Context, id string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: clip %s not ready after %s", ErrNoAudio, id, c.timeout)
}

func (c *MusicClient) getClip(ctx context.Context, id string) (songClip, error) {
	var clips []songClip
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("ids", id).
		SetResult(&clips).
		Get(c.baseURL + "/api/get")
	if err != nil {
		return songClip{}, fmt.Errorf("failed to poll music API: %w", err)
	}
	if resp.IsError() {
		return songClip{}, fmt.Errorf("music API poll returned HTTP %d", resp.StatusCode())
	}
	if len(clips) == 0 {
		return songClip{}, fmt.Errorf("%w: clip %s disappeared", ErrNoAudio, id)
	}
	return clips[0], nil
}
