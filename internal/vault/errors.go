package vault

import "errors"

var (
	// ErrNoteNotFound is returned when no note exists under the given title.
	ErrNoteNotFound = errors.New("mpkv: note not found")

	// ErrDuplicateTitle is returned by Add when a note with the same title
	// already exists.
	ErrDuplicateTitle = errors.New("mpkv: duplicate title")

	// ErrInvalidTitle is returned when a title is empty, too long, or
	// contains characters other than letters, digits and whitespace.
	ErrInvalidTitle = errors.New("mpkv: invalid title")

	// ErrInvalidContent is returned when content is outside the allowed
	// length range.
	ErrInvalidContent = errors.New("mpkv: invalid content")

	// ErrInvalidTags is returned when there are too many tags or a tag is
	// too long.
	ErrInvalidTags = errors.New("mpkv: invalid tags")
)
