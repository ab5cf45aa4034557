package vault

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"mpkv/pkg/store"
)

const testContent = "some content long enough to pass validation"

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	st, err := store.Open(t.TempDir(), store.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestAddAndGet(t *testing.T) {
	v := newTestVault(t)
	fixed := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return fixed }

	added, err := v.Add("Grocery list", testContent, []string{"errands", "food"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if !added.CreatedAt.Equal(fixed) || !added.LastModified.Equal(fixed) {
		t.Fatalf("expected both timestamps %v, got %v / %v", fixed, added.CreatedAt, added.LastModified)
	}

	got, err := v.Get("Grocery list")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != added.ID || got.Title != "Grocery list" || got.Content != testContent {
		t.Fatalf("stored note does not match: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "errands" || got.Tags[1] != "food" {
		t.Fatalf("expected tags [errands food], got %v", got.Tags)
	}
}

func TestAddDuplicateTitle(t *testing.T) {
	v := newTestVault(t)

	if _, err := v.Add("Once", testContent, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := v.Add("Once", testContent, nil); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
}

func TestAddValidation(t *testing.T) {
	v := newTestVault(t)

	cases := []struct {
		name    string
		title   string
		content string
		tags    []string
		want    error
	}{
		{"empty title", "", testContent, nil, ErrInvalidTitle},
		{"long title", strings.Repeat("a", 101), testContent, nil, ErrInvalidTitle},
		{"punctuated title", "hello, world!", testContent, nil, ErrInvalidTitle},
		{"short content", "ok", "too short", nil, ErrInvalidContent},
		{"long content", "ok", strings.Repeat("x", 10001), nil, ErrInvalidContent},
		{"too many tags", "ok", testContent, make([]string, 21), ErrInvalidTags},
		{"long tag", "ok", testContent, []string{strings.Repeat("t", 31)}, ErrInvalidTags},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Add(tc.title, tc.content, tc.tags); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// The boundary cases go through.
	okCases := []struct {
		name    string
		title   string
		content string
		tags    []string
	}{
		{"title at limit", strings.Repeat("a", 100), testContent, nil},
		{"unicode title", "Заметка 42", testContent, nil},
		{"tab in title", "plan\tB", testContent, nil},
		{"nbsp in title", "plan\u00a0C", testContent, nil},
		{"content at minimum", "minimal", strings.Repeat("c", 10), nil},
		{"tags at limit", "tagged", testContent, manyTags(20, 30)},
	}
	for _, tc := range okCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Add(tc.title, tc.content, tc.tags); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		})
	}
}

func manyTags(count, length int) []string {
	tags := make([]string, count)
	for i := range tags {
		tags[i] = strings.Repeat(string(rune('a'+i%26)), length)
	}
	return tags
}

func TestGetMissing(t *testing.T) {
	v := newTestVault(t)
	if _, err := v.Get("nothing here"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	v := newTestVault(t)

	if _, err := v.Add("Doomed", testContent, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := v.Delete("Doomed"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := v.Get("Doomed"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound after delete, got %v", err)
	}
	if err := v.Delete("Doomed"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound for a second delete, got %v", err)
	}
}

func TestTitlesOrder(t *testing.T) {
	v := newTestVault(t)

	for _, title := range []string{"first", "second", "third"} {
		if _, err := v.Add(title, testContent, nil); err != nil {
			t.Fatalf("Add %s failed: %v", title, err)
		}
	}
	titles, err := v.Titles()
	if err != nil {
		t.Fatalf("Titles failed: %v", err)
	}
	if len(titles) != 3 || titles[0] != "first" || titles[1] != "second" || titles[2] != "third" {
		t.Fatalf("expected creation order, got %v", titles)
	}

	// Delete and re-add moves a title to the end.
	if err := v.Delete("second"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := v.Add("second", testContent, nil); err != nil {
		t.Fatalf("re-Add failed: %v", err)
	}
	titles, err = v.Titles()
	if err != nil {
		t.Fatalf("Titles failed: %v", err)
	}
	if len(titles) != 3 || titles[0] != "first" || titles[1] != "third" || titles[2] != "second" {
		t.Fatalf("expected [first third second], got %v", titles)
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags(" work , ideas ,, urgent ")
	if len(got) != 3 || got[0] != "work" || got[1] != "ideas" || got[2] != "urgent" {
		t.Fatalf("expected [work ideas urgent], got %v", got)
	}
	if got := ParseTags(""); got != nil {
		t.Fatalf("expected nil for an empty list, got %v", got)
	}
	if got := ParseTags(" , ,"); got != nil {
		t.Fatalf("expected nil for an all-blank list, got %v", got)
	}
}

func TestBackupRestore(t *testing.T) {
	for _, codec := range []string{"zstd", "gzip"} {
		t.Run(codec, func(t *testing.T) {
			v := newTestVault(t)
			if _, err := v.Add("Kept", testContent, []string{"tag"}); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			if _, err := v.Add("Dropped", testContent, nil); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			if err := v.Delete("Dropped"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}

			var buf bytes.Buffer
			n, err := v.Backup(&buf, codec)
			if err != nil {
				t.Fatalf("Backup failed: %v", err)
			}
			if n == 0 || n != int64(buf.Len()) {
				t.Fatalf("Backup reported %d bytes, buffer has %d", n, buf.Len())
			}

			dir2 := t.TempDir()
			if err := Restore(dir2, &buf, codec); err != nil {
				t.Fatalf("Restore failed: %v", err)
			}

			st2, err := store.Open(dir2, store.DefaultOptions())
			if err != nil {
				t.Fatalf("Open after restore failed: %v", err)
			}
			defer st2.Close()
			v2 := New(st2)

			got, err := v2.Get("Kept")
			if err != nil {
				t.Fatalf("Get after restore failed: %v", err)
			}
			if got.Content != testContent {
				t.Fatalf("restored content mismatch: %q", got.Content)
			}
			if _, err := v2.Get("Dropped"); !errors.Is(err, ErrNoteNotFound) {
				t.Fatalf("expected the deleted note to stay deleted, got %v", err)
			}
		})
	}
}

func TestBackupUnknownCodec(t *testing.T) {
	v := newTestVault(t)
	if _, err := v.Add("Note", testContent, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	var buf bytes.Buffer
	if _, err := v.Backup(&buf, "lz4"); err == nil {
		t.Fatal("expected an error for an unknown codec")
	}

	// The failed backup must not wedge the store.
	if _, err := v.Add("After", testContent, nil); err != nil {
		t.Fatalf("Add after failed backup failed: %v", err)
	}
}
