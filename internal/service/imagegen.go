package service

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ImageGenerator produces one image for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ImageProviderConfig selects and configures the image backend.
type ImageProviderConfig struct {
	Provider     string // openai, gemini
	GeminiAPIKey string
	GeminiModel  string
}

// NewImageGenerator returns the configured backend. OpenAI reuses the shared client.
func NewImageGenerator(ctx context.Context, cfg *ImageProviderConfig, openai *OpenAIClient) (ImageGenerator, error) {
	switch cfg.Provider {
	case "", "openai":
		if openai == nil {
			return nil, errors.New("openai image provider requires an OpenAI client")
		}
		return openai, nil
	case "gemini":
		return NewGeminiImageGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported image provider: %s", cfg.Provider)
	}
}

// GeminiImageGenerator generates images with Imagen through the Gemini API.
type GeminiImageGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiImageGenerator creates a new Imagen-backed generator.
func NewGeminiImageGenerator(ctx context.Context, apiKey, model string) (*GeminiImageGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = "imagen-4.0-generate-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiImageGenerator{client: client, model: model}, nil
}

// GenerateImage requests a single square image.
func (g *GeminiImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "1:1",
	})
	if err != nil {
		return nil, fmt.Errorf("imagen generation failed: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("imagen returned no image")
	}
	data := resp.GeneratedImages[0].Image.ImageBytes
	if len(data) == 0 {
		return nil, errors.New("imagen returned an empty image")
	}
	return data, nil
}
