package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/wishpage/internal/domain"
)

const validContent = `{
  "title": "Happy 30th, Alex!",
  "recipient": "Alex",
  "about": "Alex loves hiking",
  "paragraph": "Thirty years of trails.",
  "short_paragraph": "Keep climbing.",
  "quotes": ["The mountains are calling."],
  "wishes": ["Many more summits."],
  "characteristics": ["brave"],
  "senders": "Sam|Denver",
  "componentType": "%s",
  "gender": "Male"
}`

func contentWith(componentType string) string {
	return fmt.Sprintf(validContent, componentType)
}

func TestContentGeneratorGenerate(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		wantComponent domain.ComponentType
	}{
		{name: "known type", reply: contentWith("birthday"), wantComponent: domain.ComponentBirthday},
		{name: "type needs normalizing", reply: contentWith("Mothers_Day"), wantComponent: domain.ComponentMothersDay},
		{name: "unknown type falls back", reply: contentWith("spaceship"), wantComponent: domain.DefaultComponentType},
		{name: "absent type falls back", reply: contentWith(""), wantComponent: domain.DefaultComponentType},
		{name: "fenced json", reply: "```json\n" + contentWith("love") + "\n```", wantComponent: domain.ComponentLove},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chat := &fakeChat{reply: tc.reply}
			got, err := NewContentGenerator(chat).Generate(context.Background(), "Happy 30th birthday to my best friend Alex who loves hiking")
			require.NoError(t, err)

			assert.Equal(t, string(tc.wantComponent), got.ComponentType)
			assert.True(t, domain.ComponentType(got.ComponentType).IsKnown())
			assert.Equal(t, domain.GenderMale, got.Gender)
			assert.Equal(t, []string{}, got.Hobbies)
			assert.Equal(t, "Denver", got.SenderLocation())
			assert.Contains(t, chat.user, "Alex who loves hiking")
		})
	}
}

func TestContentGeneratorRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "not json", reply: "Sure! Here is your page"},
		{name: "missing wishes", reply: `{"title":"t","paragraph":"p","quotes":["q"]}`},
		{name: "empty quotes", reply: `{"title":"t","paragraph":"p","quotes":[" "],"wishes":["w"]}`},
		{name: "missing title", reply: `{"paragraph":"p","quotes":["q"],"wishes":["w"]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewContentGenerator(&fakeChat{reply: tc.reply}).Generate(context.Background(), "hi")
			assert.ErrorIs(t, err, ErrInvalidContent)
		})
	}
}

func TestContentGeneratorErrors(t *testing.T) {
	_, err := NewContentGenerator(&fakeChat{}).Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyContext)

	_, err = NewContentGenerator(&fakeChat{err: errUpstream}).Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, errUpstream)
}

func TestWishServiceCreate(t *testing.T) {
	store := newFakeWishes()
	svc := NewWishService(store, NewContentGenerator(&fakeChat{reply: contentWith("birthday")}), "https://gift.example.com/")

	wish, err := svc.Create(context.Background(), "Happy birthday Alex")
	require.NoError(t, err)
	require.NotEmpty(t, wish.ID)
	assert.Equal(t, "birthday", wish.ComponentType)
	assert.Equal(t, "Happy birthday Alex", wish.Prompt)
	assert.Equal(t, "https://gift.example.com/wishes/"+wish.ID, svc.PageURL(wish.ID))

	got, err := svc.Get(context.Background(), wish.ID)
	require.NoError(t, err)
	assert.Equal(t, wish.Content.Title, got.Content.Title)
}
