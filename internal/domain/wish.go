package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ComponentType selects the page template used to render a wish.
type ComponentType string

const (
	ComponentBirthday    ComponentType = "birthday"
	ComponentAnniversary ComponentType = "anniversary"
	ComponentLove        ComponentType = "love"
	ComponentFriendship  ComponentType = "friendship"
	ComponentMothersDay  ComponentType = "mothersday"
	ComponentFathersDay  ComponentType = "fathersday"
	ComponentWedding     ComponentType = "wedding"
	ComponentGraduation  ComponentType = "graduation"
	ComponentCountdown   ComponentType = "countdown"
	ComponentPoem        ComponentType = "poem"
	ComponentGeneral     ComponentType = "general"
)

// DefaultComponentType is used when generated content names no known template.
const DefaultComponentType = ComponentGeneral

var knownComponentTypes = []ComponentType{
	ComponentBirthday,
	ComponentAnniversary,
	ComponentLove,
	ComponentFriendship,
	ComponentMothersDay,
	ComponentFathersDay,
	ComponentWedding,
	ComponentGraduation,
	ComponentCountdown,
	ComponentPoem,
	ComponentGeneral,
}

// KnownComponentTypes returns every component type that maps to a template.
func KnownComponentTypes() []ComponentType {
	out := make([]ComponentType, len(knownComponentTypes))
	copy(out, knownComponentTypes)
	return out
}

// NormalizeComponentType lowercases and trims a raw component type tag.
// LLM output tends to vary ("Birthday", "mothers_day"), so separators are dropped too.
func NormalizeComponentType(raw string) ComponentType {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", "", "-", "", " ", "", "'", "").Replace(s)
	return ComponentType(s)
}

// IsKnown reports whether the component type maps to a template.
func (c ComponentType) IsKnown() bool {
	for _, k := range knownComponentTypes {
		if c == k {
			return true
		}
	}
	return false
}

// Gender values recognized by gender-specific templates.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// NormalizeGender maps free-form gender text onto GenderMale/GenderFemale or "".
func NormalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "man", "boy", "he":
		return GenderMale
	case "female", "f", "woman", "girl", "she":
		return GenderFemale
	default:
		return ""
	}
}

// SendersDelimiter separates the sender name from an optional location.
const SendersDelimiter = "|"

// WishContent is the structured page content generated from the user's message.
type WishContent struct {
	Title           string   `json:"title"`
	Recipient       string   `json:"recipient"`
	About           string   `json:"about"`
	Paragraph       string   `json:"paragraph"`
	ShortParagraph  string   `json:"short_paragraph"`
	Quotes          []string `json:"quotes"`
	Wishes          []string `json:"wishes"`
	Hobbies         []string `json:"hobbies"`
	Characteristics []string `json:"characteristics"`
	Senders         string   `json:"senders"`
	ComponentType   string   `json:"componentType"`
	Gender          string   `json:"gender"`
	EventDate       string   `json:"eventDate,omitempty"`
	PoemAbout       string   `json:"poemabout,omitempty"`
	Description     string   `json:"description,omitempty"`
}

// SenderName returns the name part of Senders.
func (c *WishContent) SenderName() string {
	name, _, _ := strings.Cut(c.Senders, SendersDelimiter)
	return strings.TrimSpace(name)
}

// SenderLocation returns the location part of Senders, or "" when absent.
func (c *WishContent) SenderLocation() string {
	_, loc, _ := strings.Cut(c.Senders, SendersDelimiter)
	return strings.TrimSpace(loc)
}

// EventTime parses EventDate. Accepts RFC 3339 or a plain YYYY-MM-DD date.
func (c *WishContent) EventTime() (time.Time, bool) {
	if c.EventDate == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, c.EventDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Value implements the driver.Valuer interface for database serialization.
func (c WishContent) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (c *WishContent) Scan(value interface{}) error {
	if value == nil {
		*c = WishContent{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan WishContent")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, c)
}

// Wish is one persisted wish record. It is created once and never updated.
type Wish struct {
	ID            string      `gorm:"type:text;primaryKey" json:"id"`
	ComponentType string      `gorm:"type:text;index:idx_wishes_component" json:"component_type"`
	Prompt        string      `gorm:"type:text" json:"-"`
	Content       WishContent `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName returns the database table name for Wish.
func (Wish) TableName() string {
	return "wishes"
}
