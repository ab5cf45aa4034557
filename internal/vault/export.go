package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ExportFileName derives a filesystem-safe name from a note title: every
// rune that is not a letter or digit becomes an underscore.
func ExportFileName(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString(".txt")
	return b.String()
}

// Export writes every note to dir as a text file and returns the number
// written. Each file holds the title line, a blank line, then the content.
func (v *Vault) Export(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("create export dir %s: %w", dir, err)
	}

	titles, err := v.Titles()
	if err != nil {
		return 0, err
	}

	written := 0
	for _, title := range titles {
		n, err := v.Get(title)
		if err != nil {
			if errors.Is(err, ErrNoteNotFound) {
				continue
			}
			return written, err
		}
		body := fmt.Sprintf("Title: %s\n\n%s", n.Title, n.Content)
		path := filepath.Join(dir, ExportFileName(n.Title))
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}
	return written, nil
}
