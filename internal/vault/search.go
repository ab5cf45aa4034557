package vault

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// Search returns the notes whose title, tags or content contain query,
// compared case-insensitively under Unicode case folding. Results come
// back in the vault's title order, oldest note first.
func (v *Vault) Search(query string) ([]Note, error) {
	// A Caser is stateful, so build one per call rather than sharing.
	folder := cases.Fold()
	q := folder.String(query)

	titles, err := v.Titles()
	if err != nil {
		return nil, err
	}

	var matches []Note
	for _, title := range titles {
		n, err := v.Get(title)
		if err != nil {
			if errors.Is(err, ErrNoteNotFound) {
				continue
			}
			return nil, err
		}
		if noteMatches(folder, n, q) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

func noteMatches(folder cases.Caser, n Note, foldedQuery string) bool {
	if strings.Contains(folder.String(n.Title), foldedQuery) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(folder.String(tag), foldedQuery) {
			return true
		}
	}
	return strings.Contains(folder.String(n.Content), foldedQuery)
}

// TagCounts reports how many notes carry each tag.
func (v *Vault) TagCounts() (map[string]int, error) {
	titles, err := v.Titles()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, title := range titles {
		n, err := v.Get(title)
		if err != nil {
			if errors.Is(err, ErrNoteNotFound) {
				continue
			}
			return nil, err
		}
		for _, tag := range n.Tags {
			counts[tag]++
		}
	}
	return counts, nil
}
