package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScenariosFixedAtSix(t *testing.T) {
	assert.Len(t, Scenarios, 6)
}

func TestSanitizeImagePrompt(t *testing.T) {
	got := SanitizeImagePrompt("A dog, in a park!", "having a picnic\tin a meadow", "cute style")
	assert.Equal(t, "A dog in a park having a picnic in a meadow cute style", got)

	got = SanitizeImagePrompt("  \"quoted\" <b>tag</b> ", "x", "")
	assert.Equal(t, "quoted btagb x", got)
}

func TestContentUserPromptEmbedsContext(t *testing.T) {
	p := ContentUserPrompt([]string{"birthday", "general"}, "  Happy 30th birthday Alex  ")
	assert.Contains(t, p, "birthday, general")
	assert.Contains(t, p, "Happy 30th birthday Alex")
	assert.Contains(t, p, `"componentType"`)
}

func TestSongPromptFallback(t *testing.T) {
	assert.Equal(t, "seed", SongPromptFallback("t", "r", "seed"))
	assert.Equal(t, "a cheerful song for Alex: Happy", SongPromptFallback("Happy", "Alex", ""))
	assert.Equal(t, "a cheerful song: Happy", SongPromptFallback("Happy", "", ""))
}
