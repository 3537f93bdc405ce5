package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/wishpage/internal/domain"
	"github.com/timmy/wishpage/internal/logger"
	"github.com/timmy/wishpage/internal/prompts"
)

// ChatCompleter returns a JSON object produced by a text model.
type ChatCompleter interface {
	ChatJSON(ctx context.Context, system, user string) (string, error)
}

// ContentGenerator turns a free-text message into validated wish content.
type ContentGenerator struct {
	ai ChatCompleter
}

// NewContentGenerator creates a new ContentGenerator.
func NewContentGenerator(ai ChatCompleter) *ContentGenerator {
	return &ContentGenerator{ai: ai}
}

// Generate asks the model for page content and validates the result.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - message: the user's free-text message.
//
// Returns:
//   - *domain.WishContent: normalized content.
//   - error: ErrEmptyContext, ErrInvalidContent, or an upstream failure.
func (g *ContentGenerator) Generate(ctx context.Context, message string) (*domain.WishContent, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyContext
	}

	types := domain.KnownComponentTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	raw, err := g.ai.ChatJSON(ctx, prompts.ContentSystemPrompt, prompts.ContentUserPrompt(names, message))
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	content, err := parseContent(raw)
	if err != nil {
		return nil, err
	}

	ct := domain.NormalizeComponentType(content.ComponentType)
	if !ct.IsKnown() {
		logger.CtxWarn(ctx, "Unknown componentType %q from model, using %s", content.ComponentType, domain.DefaultComponentType)
		ct = domain.DefaultComponentType
	}
	content.ComponentType = string(ct)
	content.Gender = domain.NormalizeGender(content.Gender)

	return content, nil
}

// parseContent decodes model output and checks the fields templates rely on.
func parseContent(raw string) (*domain.WishContent, error) {
	raw = stripCodeFence(raw)

	var content domain.WishContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if err := validateContent(&content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	if content.Hobbies == nil {
		content.Hobbies = []string{}
	}
	if content.Characteristics == nil {
		content.Characteristics = []string{}
	}
	return &content, nil
}

func validateContent(c *domain.WishContent) error {
	var errs []error
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, errors.New("title is empty"))
	}
	if strings.TrimSpace(c.Paragraph) == "" {
		errs = append(errs, errors.New("paragraph is empty"))
	}
	if nonEmpty(c.Wishes) == 0 {
		errs = append(errs, errors.New("wishes is empty"))
	}
	if nonEmpty(c.Quotes) == 0 {
		errs = append(errs, errors.New("quotes is empty"))
	}
	return errors.Join(errs...)
}

func nonEmpty(items []string) int {
	n := 0
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// stripCodeFence removes a ```json fence some models wrap around JSON mode output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
