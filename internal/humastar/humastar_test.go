package humastar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()

	dir := t.TempDir()
	fragments := map[string]string{
		"empty-state.html": `{{define "empty-state"}}<div class="empty-state">{{.Title}}: {{.Message}}</div>{{end}}`,
		"card.html":        `{{define "card"}}<div class="card">{{.Name}}</div>{{end}}`,
	}
	for name, body := range fragments {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r, err := NewRenderer(dir)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRenderListItems(t *testing.T) {
	r := newTestRenderer(t)

	type card struct{ Name string }
	html := RenderList(r, "card", []any{card{"alpha"}, card{"beta"}}, "Empty", "Nothing here")

	if !strings.Contains(html, "alpha") || !strings.Contains(html, "beta") {
		t.Fatalf("html=%q, want both cards", html)
	}
	if strings.Contains(html, "empty-state") {
		t.Fatalf("html=%q, unexpected empty state", html)
	}
}

func TestRenderListEmptyState(t *testing.T) {
	r := newTestRenderer(t)

	html := RenderList(r, "card", nil, "No features yet", "Pick a tool and click the map")
	if !strings.Contains(html, "No features yet") {
		t.Fatalf("html=%q, want empty state", html)
	}
}

func TestPageSlicing(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	page := Page(items, 2, 2)
	if page.Total != 5 || page.Offset != 2 || len(page.Data) != 2 {
		t.Fatalf("page=%+v", page)
	}
	if page.Data[0] != 2 || page.Data[1] != 3 {
		t.Fatalf("data=%v, want [2 3]", page.Data)
	}

	// Offset past the end yields an empty page, not a panic.
	page = Page(items, 10, 2)
	if len(page.Data) != 0 || page.Total != 5 {
		t.Fatalf("page=%+v, want empty data", page)
	}

	// Zero limit means everything.
	page = Page(items, 0, 0)
	if len(page.Data) != 5 {
		t.Fatalf("data=%v, want all items", page.Data)
	}
}
