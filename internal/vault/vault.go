// Package vault implements the notes layer on top of the key-value store.
// Notes are keyed by title and stored as JSON.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mpkv/pkg/store"
)

// Vault wraps a store with note semantics: validation, unique titles,
// timestamps and JSON encoding.
type Vault struct {
	st  *store.Store
	now func() time.Time
}

// New returns a vault over st.
func New(st *store.Store) *Vault {
	return &Vault{st: st, now: time.Now}
}

// Add validates and persists a new note. Titles must be unique; an
// existing note under the same title yields ErrDuplicateTitle.
func (v *Vault) Add(title, content string, tags []string) (Note, error) {
	if err := ValidateTitle(title); err != nil {
		return Note{}, err
	}
	if err := ValidateContent(content); err != nil {
		return Note{}, err
	}
	if err := ValidateTags(tags); err != nil {
		return Note{}, err
	}

	_, err := v.st.Get(title)
	switch {
	case err == nil:
		return Note{}, fmt.Errorf("%w: %q", ErrDuplicateTitle, title)
	case !errors.Is(err, store.ErrNotFound):
		return Note{}, err
	}

	now := v.now().UTC()
	n := Note{
		ID:           uuid.NewString(),
		Title:        title,
		Content:      content,
		Tags:         tags,
		CreatedAt:    now,
		LastModified: now,
	}
	data, err := json.Marshal(n)
	if err != nil {
		return Note{}, fmt.Errorf("encode note %q: %w", title, err)
	}
	if _, err := v.st.Put(title, data); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Get fetches and decodes the note stored under title.
func (v *Vault) Get(title string) (Note, error) {
	data, err := v.st.Get(title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Note{}, fmt.Errorf("%w: %q", ErrNoteNotFound, title)
		}
		return Note{}, err
	}
	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return Note{}, fmt.Errorf("decode note %q: %w", title, err)
	}
	return n, nil
}

// Delete removes the note stored under title.
func (v *Vault) Delete(title string) error {
	existed, err := v.st.Delete(title)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %q", ErrNoteNotFound, title)
	}
	return nil
}

// Titles lists note titles oldest first.
func (v *Vault) Titles() ([]string, error) {
	seq, err := v.st.Keys()
	if err != nil {
		return nil, err
	}
	var titles []string
	for title := range seq {
		titles = append(titles, title)
	}
	return titles, nil
}
