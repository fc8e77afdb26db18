package api

import (
	"net/http"
	"testing"

	"speshway/internal/database"
)

func TestCreateJobAssignsSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	var numbers []uint
	for _, title := range []string{"Backend Engineer", "QA Analyst", "Designer"} {
		w := env.doJSON(t, http.MethodPost, "/api/jobs", adminToken, map[string]string{
			"title":       title,
			"description": "Join us",
			"location":    "Hyderabad",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create job: expected 201 got %d body=%s", w.Code, w.Body.String())
		}
		var job struct {
			JobNumber uint `json:"jobNumber"`
		}
		decodeBody(t, w, &job)
		numbers = append(numbers, job.JobNumber)
	}

	for i, n := range numbers {
		if n != uint(i+1) {
			t.Fatalf("expected job numbers 1,2,3 got %v", numbers)
		}
	}
}

// Imported rows can already carry numbers; the counter must start above
// them instead of reissuing taken values.
func TestCreateJobContinuesAboveImportedNumbers(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	imported := database.Job{JobNumber: 7, Title: "Imported", Description: "migrated", Status: database.JobOpen, Type: database.JobFullTime}
	if err := env.db.Create(&imported).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	w := env.doJSON(t, http.MethodPost, "/api/jobs", adminToken, map[string]string{
		"title":       "New Role",
		"description": "fresh posting",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var job struct {
		JobNumber uint `json:"jobNumber"`
	}
	decodeBody(t, w, &job)
	if job.JobNumber != 8 {
		t.Fatalf("expected number 8 after imported max 7 got %d", job.JobNumber)
	}
}

func TestGetJobBackfillsLegacyNumber(t *testing.T) {
	env := newTestEnv(t)

	legacy := database.Job{Title: "Old Posting", Description: "pre-numbering", Status: database.JobOpen, Type: database.JobFullTime}
	if err := env.db.Create(&legacy).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	w := env.doJSON(t, http.MethodGet, "/api/jobs/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var job struct {
		JobNumber uint `json:"jobNumber"`
	}
	decodeBody(t, w, &job)
	if job.JobNumber == 0 {
		t.Fatal("expected a backfilled job number")
	}

	var stored database.Job
	if err := env.db.First(&stored, legacy.ID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if stored.JobNumber != job.JobNumber {
		t.Fatalf("number not persisted: response=%d stored=%d", job.JobNumber, stored.JobNumber)
	}
}

// A listing cached before the backfill must not keep serving number zero.
func TestBackfillInvalidatesCachedListing(t *testing.T) {
	env := newTestEnv(t)

	legacy := database.Job{Title: "Old Posting", Description: "pre-numbering", Status: database.JobOpen, Type: database.JobFullTime}
	if err := env.db.Create(&legacy).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	w := env.doJSON(t, http.MethodGet, "/api/jobs", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("warm list: expected 200 got %d", w.Code)
	}

	w = env.doJSON(t, http.MethodGet, "/api/jobs/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	w = env.doJSON(t, http.MethodGet, "/api/jobs", "", nil)
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("post-backfill list: expected MISS got %q", got)
	}
	var jobs []struct {
		JobNumber uint `json:"jobNumber"`
	}
	decodeBody(t, w, &jobs)
	if len(jobs) != 1 || jobs[0].JobNumber == 0 {
		t.Fatalf("expected the backfilled number in the listing got %+v", jobs)
	}
}

func TestListJobsStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	for _, status := range []string{database.JobOpen, database.JobClosed, database.JobOpen} {
		w := env.doJSON(t, http.MethodPost, "/api/jobs", adminToken, map[string]string{
			"title":       "Role",
			"description": "desc",
			"status":      status,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create job: expected 201 got %d body=%s", w.Code, w.Body.String())
		}
	}

	w := env.doJSON(t, http.MethodGet, "/api/jobs?status=open", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var jobs []struct {
		Status string `json:"status"`
	}
	decodeBody(t, w, &jobs)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 open jobs got %d", len(jobs))
	}
	for _, j := range jobs {
		if j.Status != database.JobOpen {
			t.Fatalf("unexpected status %q in filtered list", j.Status)
		}
	}

	w = env.doJSON(t, http.MethodGet, "/api/jobs?status=bogus", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status got %d", w.Code)
	}
}

func TestJobMutationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(t, "user@example.com", database.RoleUser)

	payload := map[string]string{"title": "Role", "description": "desc"}

	w := env.doJSON(t, http.MethodPost, "/api/jobs", "", payload)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: expected 401 got %d", w.Code)
	}

	w = env.doJSON(t, http.MethodPost, "/api/jobs", userToken, payload)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user create: expected 403 got %d", w.Code)
	}
}

func TestUpdateJobPartialMerge(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	w := env.doJSON(t, http.MethodPost, "/api/jobs", adminToken, map[string]string{
		"title":       "Backend Engineer",
		"description": "Original description",
		"location":    "Hyderabad",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d", w.Code)
	}
	var created struct {
		ID uint `json:"_id"`
	}
	decodeBody(t, w, &created)

	w = env.doJSON(t, http.MethodPut, "/api/jobs/1", adminToken, map[string]string{
		"status": database.JobClosed,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var updated struct {
		Title    string `json:"title"`
		Location string `json:"location"`
		Status   string `json:"status"`
	}
	decodeBody(t, w, &updated)
	if updated.Status != database.JobClosed {
		t.Fatalf("expected closed got %q", updated.Status)
	}
	if updated.Title != "Backend Engineer" || updated.Location != "Hyderabad" {
		t.Fatalf("untouched fields were mutated: %+v", updated)
	}
}
