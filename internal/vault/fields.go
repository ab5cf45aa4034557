package vault

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field bounds. Lengths are counted in runes, not bytes.
const (
	MaxTitleChars   = 100
	MinContentChars = 10
	MaxContentChars = 10000
	MaxTags         = 20
	MaxTagChars     = 30
)

// ValidateTitle checks that title is non-empty, within the length bound
// and made of letters, digits and whitespace only.
func ValidateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTitle)
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleChars {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalidTitle, n, MaxTitleChars)
	}
	for _, r := range title {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return fmt.Errorf("%w: character %q not allowed", ErrInvalidTitle, r)
		}
	}
	return nil
}

// ValidateContent checks the content length bounds.
func ValidateContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < MinContentChars {
		return fmt.Errorf("%w: %d characters is below the minimum of %d", ErrInvalidContent, n, MinContentChars)
	}
	if n > MaxContentChars {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalidContent, n, MaxContentChars)
	}
	return nil
}

// ValidateTags checks the tag count and per-tag length bounds.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("%w: %d tags exceeds %d", ErrInvalidTags, len(tags), MaxTags)
	}
	for _, tag := range tags {
		if n := utf8.RuneCountInString(tag); n > MaxTagChars {
			return fmt.Errorf("%w: tag %q exceeds %d characters", ErrInvalidTags, tag, MaxTagChars)
		}
	}
	return nil
}

// ParseTags splits a comma-separated tag list, trimming whitespace and
// dropping empty entries. It does not enforce bounds; ValidateTags does.
func ParseTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
