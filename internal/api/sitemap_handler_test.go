package api

import (
	"net/http"
	"strings"
	"testing"

	"speshway/internal/database"
)

func TestSitemapListsActiveContent(t *testing.T) {
	env := newTestEnv(t)

	seed := []any{
		&database.GalleryItem{Title: "Visible", Category: "Fests", IsActive: true},
		&database.GalleryItem{Title: "Hidden", Category: "Fests", IsActive: false},
		&database.Job{Title: "Open role", Description: "d", Status: database.JobOpen, Type: database.JobFullTime},
		&database.Job{Title: "Closed role", Description: "d", Status: database.JobClosed, Type: database.JobFullTime},
	}
	for _, record := range seed {
		if err := env.db.Create(record).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := env.doJSON(t, http.MethodGet, "/sitemap.xml", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("expected xml content type got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"http://localhost:5000/</loc>",
		"http://localhost:5000/career</loc>",
		"http://localhost:5000/blog/1</loc>",
		"http://localhost:5000/career/1</loc>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("sitemap missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "/blog/2<") {
		t.Fatal("inactive gallery item leaked into the sitemap")
	}
	if strings.Contains(body, "/career/2<") {
		t.Fatal("closed job leaked into the sitemap")
	}
}
