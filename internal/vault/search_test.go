package vault

import (
	"testing"
)

func addNote(t *testing.T, v *Vault, title, content string, tags ...string) {
	t.Helper()
	if _, err := v.Add(title, content, tags); err != nil {
		t.Fatalf("Add %s failed: %v", title, err)
	}
}

func searchTitles(t *testing.T, v *Vault, query string) []string {
	t.Helper()
	matches, err := v.Search(query)
	if err != nil {
		t.Fatalf("Search %q failed: %v", query, err)
	}
	titles := make([]string, len(matches))
	for i, n := range matches {
		titles[i] = n.Title
	}
	return titles
}

func TestSearch(t *testing.T) {
	v := newTestVault(t)
	addNote(t, v, "Coffee brewing", "Grind size matters more than you think", "kitchen", "howto")
	addNote(t, v, "Trip planning", "Pack light and bring coffee beans", "travel")
	addNote(t, v, "Standup notes", "Discussed the roadmap for next quarter", "work")

	// Title match, case-insensitive.
	if got := searchTitles(t, v, "COFFEE"); len(got) != 2 {
		t.Fatalf("expected 2 matches for COFFEE, got %v", got)
	}

	// Content-only match.
	if got := searchTitles(t, v, "roadmap"); len(got) != 1 || got[0] != "Standup notes" {
		t.Fatalf("expected [Standup notes], got %v", got)
	}

	// Tag match.
	if got := searchTitles(t, v, "travel"); len(got) != 1 || got[0] != "Trip planning" {
		t.Fatalf("expected [Trip planning], got %v", got)
	}

	// No match.
	if got := searchTitles(t, v, "quantum"); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}

	// Results follow the vault's title order.
	if got := searchTitles(t, v, "coffee"); len(got) != 2 || got[0] != "Coffee brewing" || got[1] != "Trip planning" {
		t.Fatalf("expected creation order, got %v", got)
	}
}

func TestSearchCaseFolding(t *testing.T) {
	v := newTestVault(t)
	addNote(t, v, "German lesson", "Die Straße ist lang und breit")

	// Case folding maps ß to ss, so either spelling of the query hits.
	if got := searchTitles(t, v, "STRASSE"); len(got) != 1 {
		t.Fatalf("expected a folded match for STRASSE, got %v", got)
	}
	if got := searchTitles(t, v, "straße"); len(got) != 1 {
		t.Fatalf("expected a folded match for straße, got %v", got)
	}
}

func TestTagCounts(t *testing.T) {
	v := newTestVault(t)
	addNote(t, v, "One", testContent, "work", "urgent")
	addNote(t, v, "Two", testContent, "work")
	addNote(t, v, "Three", testContent)

	counts, err := v.TagCounts()
	if err != nil {
		t.Fatalf("TagCounts failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 distinct tags, got %v", counts)
	}
	if counts["work"] != 2 || counts["urgent"] != 1 {
		t.Fatalf("expected work=2 urgent=1, got %v", counts)
	}
}
