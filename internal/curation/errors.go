package curation

import (
	"errors"
	"fmt"
)

// ErrValidation is the base class for user-correctable input errors.
// They are always reported back to the chat and never abort the bot.
var ErrValidation = errors.New("validation error")

// ErrNotFound marks operations referencing an index or resource that is
// gone — the UI must tell the user instead of silently ignoring it.
var ErrNotFound = errors.New("not found")

// TextTooLongError is returned when a caption exceeds the configured limit.
type TextTooLongError struct {
	Length int
	Limit  int
}

func (e *TextTooLongError) Error() string {
	return fmt.Sprintf("text is %d characters, limit is %d", e.Length, e.Limit)
}

// Unwrap makes errors.Is(err, ErrValidation) hold for text-length failures.
func (e *TextTooLongError) Unwrap() error { return ErrValidation }
