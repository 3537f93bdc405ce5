package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIClient talks to an OpenAI-compatible API for chat, vision and image generation.
type OpenAIClient struct {
	client      *resty.Client
	fetch       *resty.Client
	baseURL     string
	textModel   string
	visionModel string
	imageModel  string
	imageSize   string
	maxTokens   int
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey               string
	BaseURL              string
	TextModel            string
	VisionModel          string
	ImageModel           string
	ImageSize            string
	DescriptionMaxTokens int
	Timeout              time.Duration
}

// NewOpenAIClient creates a new OpenAI client.
// Parameters:
//   - cfg: API key, base URL, models and limits.
//
// Returns:
//   - *OpenAIClient: initialized client wrapper.
func NewOpenAIClient(cfg *OpenAIConfig) *OpenAIClient {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	maxTokens := cfg.DescriptionMaxTokens
	if maxTokens <= 0 {
		maxTokens = 100
	}
	imageSize := cfg.ImageSize
	if imageSize == "" {
		imageSize = "1024x1024"
	}

	return &OpenAIClient{
		client:      client,
		fetch:       resty.New().SetTimeout(timeout),
		baseURL:     baseURL,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		imageModel:  cfg.ImageModel,
		imageSize:   imageSize,
		maxTokens:   maxTokens,
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for text, []interface{} for user with images
}

type chatTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatImageContent struct {
	Type     string       `json:"type"`
	ImageURL chatImageURL `json:"image_url"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type imageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// ChatJSON sends a system+user conversation in JSON response mode and returns the raw content.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - system: system instruction.
//   - user: user message.
//
// Returns:
//   - string: model output, expected to be a JSON object.
//   - error: non-nil if the request fails or the model returns nothing.
func (c *OpenAIClient) ChatJSON(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	return c.complete(ctx, req, "chat")
}

// DescribeImage asks the vision model for a short description of an image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - system: fixed instruction.
//   - user: user-turn text sent alongside the image.
//   - imageData: raw image bytes.
//   - mimeType: image MIME type used for the data URL.
//
// Returns:
//   - string: description text.
//   - error: non-nil if the API request fails.
func (c *OpenAIClient) DescribeImage(ctx context.Context, system, user string, imageData []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	req := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{
				Role: "user",
				Content: []interface{}{
					chatTextContent{Type: "text", Text: user},
					chatImageContent{
						Type:     "image_url",
						ImageURL: chatImageURL{URL: dataURL, Detail: "low"},
					},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}
	return c.complete(ctx, req, "vision")
}

func (c *OpenAIClient) complete(ctx context.Context, req chatRequest, op string) (string, error) {
	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to call %s API: %w", op, err)
	}

	if httpResp.IsError() {
		return "", fmt.Errorf("%s API returned error: %s", op, describeHTTPError(httpResp, resp.Error))
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s API error: %s", op, resp.Error.Message)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no content from %s API (status: %d)", op, httpResp.StatusCode())
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateImage requests one image and returns its bytes.
// The API may answer with inline base64 or a URL; a URL is downloaded without credentials.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	req := imageRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		N:      1,
		Size:   c.imageSize,
	}

	var resp imageResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.baseURL + "/images/generations")
	if err != nil {
		return nil, fmt.Errorf("failed to call image API: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("image API returned error: %s", describeHTTPError(httpResp, resp.Error))
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no image in response (status: %d)", httpResp.StatusCode())
	}

	item := resp.Data[0]
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		return data, nil
	}
	if item.URL == "" {
		return nil, errors.New("image response has neither url nor b64_json")
	}
	return downloadBytes(ctx, c.fetch, item.URL)
}

func describeHTTPError(resp *resty.Response, apiErr *apiError) string {
	if apiErr != nil && apiErr.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), truncate(string(resp.Body()), 500))
}

// downloadBytes fetches a URL with a client that carries no API credentials.
func downloadBytes(ctx context.Context, client *resty.Client, url string) ([]byte, error) {
	resp, err := client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download %s returned HTTP %d", url, resp.StatusCode())
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("download %s returned empty body", url)
	}
	return resp.Body(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
