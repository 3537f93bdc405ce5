package prompts

import (
	"fmt"
	"strings"
	"unicode"
)

// ============================================================================
// Content Generation Prompt (LLM)
// ============================================================================

// ContentSystemPrompt fixes the role and output contract for wish content.
const ContentSystemPrompt = `You write warm, personal content for a one-page gift website.
Reply with a single JSON object and nothing else. Every list must contain at least one item.`

// ContentExampleJSON is the JSON shape the model must reproduce.
const ContentExampleJSON = `{
  "title": "Happy Birthday, Alex!",
  "recipient": "Alex",
  "about": "Alex turns 30 and loves long hikes in the mountains.",
  "paragraph": "Alex, thirty years of adventures and every one of them better with you around...",
  "short_paragraph": "To many more trails together.",
  "quotes": ["The best view comes after the hardest climb.", "Adventure is worthwhile in itself."],
  "wishes": ["May every summit feel easy.", "May your boots never leak."],
  "hobbies": ["hiking", "camping"],
  "characteristics": ["kind", "brave", "funny"],
  "senders": "Sam|Denver",
  "componentType": "birthday",
  "gender": "male",
  "eventDate": "",
  "poemabout": "",
  "description": "an upbeat acoustic birthday song about mountain hikes"
}`

// contentUserTemplate embeds the user's message; %s slots: component list, example, context.
const contentUserTemplate = `Create the content for a personal gift page based on the message below.

Rules:
- "componentType" must be exactly one of: %s. Pick "general" if nothing else fits.
- "gender" is "male" or "female" when the recipient's gender is clear, otherwise "".
- "senders" is the sender's name, optionally followed by "|" and their location.
- "eventDate" (YYYY-MM-DD) is only needed for "countdown".
- "poemabout" is only needed for "poem".
- "description" is a one-sentence prompt for a song about the recipient.

Example output:
%s

Message:
%s`

// ContentUserPrompt builds the user turn for content generation.
func ContentUserPrompt(componentTypes []string, context string) string {
	return fmt.Sprintf(contentUserTemplate, strings.Join(componentTypes, ", "), ContentExampleJSON, strings.TrimSpace(context))
}

// ============================================================================
// Vision Prompt (VLM)
// ============================================================================

// DescribeSystemPrompt is the fixed instruction for the description extractor.
const DescribeSystemPrompt = `Describe this image.`

// DescribeUserPrompt asks for a description short enough to seed an illustration prompt.
const DescribeUserPrompt = `Describe the people, animals and setting in this photo in one or two short sentences. No preamble.`

// ============================================================================
// Image Generation Scenarios
// ============================================================================

// Scenarios are combined with every photo description to produce one illustration each.
var Scenarios = []string{
	"celebrating with balloons and a birthday cake",
	"having a picnic in a sunny meadow",
	"dancing under colorful fairy lights",
	"hugging in front of a big heart",
	"traveling in a hot air balloon over the hills",
	"opening a gift box full of confetti",
}

// SanitizeImagePrompt combines a scenario with a description, strips everything
// but letters, digits and spaces, and appends the style suffix.
func SanitizeImagePrompt(description, scenario, styleSuffix string) string {
	raw := strings.TrimSpace(description) + " " + strings.TrimSpace(scenario)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, raw)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if styleSuffix != "" {
		cleaned += " " + strings.TrimSpace(styleSuffix)
	}
	return cleaned
}

// ============================================================================
// Song Prompt
// ============================================================================

// SongPromptFallback builds a song prompt from stored content when the caller sends none.
func SongPromptFallback(title, recipient, description string) string {
	if description != "" {
		return description
	}
	if recipient != "" {
		return fmt.Sprintf("a cheerful song for %s: %s", recipient, title)
	}
	return fmt.Sprintf("a cheerful song: %s", title)
}
