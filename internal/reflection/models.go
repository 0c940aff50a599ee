package reflection

import (
	"errors"
	"strings"
	"time"
)

// Reflection is one reader's response to a book: written text, a spoken
// recording, or both. The audio URL points at an object served by the audio
// storage endpoints.
type Reflection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookTitle string    `json:"book_title"`
	Text      string    `json:"reflection_text,omitempty"`
	AudioURL  string    `json:"audio_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrEmptyReflection is returned when a reflection has neither text nor audio.
	ErrEmptyReflection = errors.New("a reflection needs text or an audio recording")

	// ErrMissingUser is returned when no user is attached to the reflection.
	ErrMissingUser = errors.New("user_id is required")

	// ErrMissingBookTitle is returned when the book title is empty.
	ErrMissingBookTitle = errors.New("book_title is required")

	// ErrNotFound is returned when a reflection does not exist.
	ErrNotFound = errors.New("reflection not found")
)

// Validate checks the required fields and the at-least-one-of rule for text
// and audio.
func (r Reflection) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(r.BookTitle) == "" {
		return ErrMissingBookTitle
	}
	if strings.TrimSpace(r.Text) == "" && r.AudioURL == "" {
		return ErrEmptyReflection
	}
	return nil
}
