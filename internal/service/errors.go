package service

import "errors"

var (
	// ErrEmptyContext is returned when a wish is requested without any message text.
	ErrEmptyContext = errors.New("context is required")

	// ErrInvalidContent is returned when generated content is not valid JSON or misses required fields.
	ErrInvalidContent = errors.New("generated content is invalid")

	// ErrNoImages is returned when a wish has no uploaded images to describe.
	ErrNoImages = errors.New("no images uploaded for this wish")

	// ErrNoDescriptions is returned when image generation is requested without descriptions.
	ErrNoDescriptions = errors.New("descriptions are required")

	// ErrAllTasksFailed is returned when every task of a fan-out failed.
	ErrAllTasksFailed = errors.New("all generation tasks failed")

	// ErrNoAudio is returned when the music service answers without a playable clip.
	ErrNoAudio = errors.New("music service returned no audio")
)
