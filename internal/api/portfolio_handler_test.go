package api

import (
	"net/http"
	"testing"

	"speshway/internal/database"
)

func TestPortfolioCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	w := env.doMultipart(t, http.MethodPost, "/api/portfolios", adminToken, map[string]string{
		"title": "Missing fields",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}

	w = env.doMultipart(t, http.MethodPost, "/api/portfolios", adminToken, map[string]string{
		"title":        "ERP rollout",
		"category":     "Enterprise",
		"description":  "Large rollout",
		"status":       "in_progress",
		"technologies": `["go","react"]`,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var created struct {
		Status       string   `json:"status"`
		Technologies []string `json:"technologies"`
	}
	decodeBody(t, w, &created)
	if created.Status != database.PortfolioInProgress {
		t.Fatalf("expected in_progress got %q", created.Status)
	}
	if len(created.Technologies) != 2 {
		t.Fatalf("expected 2 technologies got %v", created.Technologies)
	}
}

func TestPortfolioCreateRejectsBadArrayField(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	w := env.doMultipart(t, http.MethodPost, "/api/portfolios", adminToken, map[string]string{
		"title":        "ERP rollout",
		"category":     "Enterprise",
		"description":  "Large rollout",
		"technologies": `not-json`,
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestPortfolioListIsCached(t *testing.T) {
	env := newTestEnv(t)

	first := env.doJSON(t, http.MethodGet, "/api/portfolios", "", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", first.Code)
	}
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("first read: expected MISS got %q", got)
	}

	second := env.doJSON(t, http.MethodGet, "/api/portfolios", "", nil)
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("second read: expected HIT got %q", got)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("cached body differs from the original response")
	}
}

func TestPortfolioMutationInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	// Warm the cache, including a query-string variant.
	env.doJSON(t, http.MethodGet, "/api/portfolios", "", nil)
	env.doJSON(t, http.MethodGet, "/api/portfolios?x=1", "", nil)
	if env.cache.size() != 2 {
		t.Fatalf("expected 2 cached entries got %d", env.cache.size())
	}

	w := env.doMultipart(t, http.MethodPost, "/api/portfolios", adminToken, map[string]string{
		"title":       "Fresh project",
		"category":    "Web",
		"description": "Just shipped",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if env.cache.size() != 0 {
		t.Fatalf("expected cache cleared got %d entries", env.cache.size())
	}

	after := env.doJSON(t, http.MethodGet, "/api/portfolios", "", nil)
	if got := after.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("post-invalidation read: expected MISS got %q", got)
	}
	var items []struct {
		Title string `json:"title"`
	}
	decodeBody(t, after, &items)
	if len(items) != 1 || items[0].Title != "Fresh project" {
		t.Fatalf("expected the new project in the list got %v", items)
	}
}

func TestPortfolioMutationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, hrToken := env.createUser(t, "hr@example.com", database.RoleHR)

	fields := map[string]string{
		"title":       "Project",
		"category":    "Web",
		"description": "desc",
	}

	w := env.doMultipart(t, http.MethodPost, "/api/portfolios", "", fields, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", w.Code)
	}

	// HR manages submissions, not content.
	w = env.doMultipart(t, http.MethodPost, "/api/portfolios", hrToken, fields, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("hr: expected 403 got %d", w.Code)
	}
}

func TestPortfolioUpdateReplacesImage(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	w := env.doMultipart(t, http.MethodPost, "/api/portfolios", adminToken, map[string]string{
		"title":       "Imaged project",
		"category":    "Web",
		"description": "desc",
	}, []formFile{
		{field: "image", filename: "old.png", contentType: "image/png", content: []byte("old")},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var created struct {
		Image database.Image `json:"image"`
	}
	decodeBody(t, w, &created)
	if created.Image.PublicID == "" {
		t.Fatal("expected an image on the created portfolio")
	}

	w = env.doMultipart(t, http.MethodPut, "/api/portfolios/1", adminToken, nil, []formFile{
		{field: "image", filename: "new.png", contentType: "image/png", content: []byte("new")},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var updated struct {
		Image database.Image `json:"image"`
	}
	decodeBody(t, w, &updated)
	if updated.Image.PublicID == created.Image.PublicID {
		t.Fatal("expected the image to be replaced")
	}
}

func TestPortfolioGetNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/api/portfolios/999", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
