package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speshway/internal/database"
)

func TestSubmitContactJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/contact/submit", "", map[string]string{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"message": "Hello there",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"data"`
	}
	decodeBody(t, w, &resp)
	if !resp.Success {
		t.Fatal("expected success true")
	}
	if resp.Data.Type != database.ContactTypeContact {
		t.Fatalf("expected default type contact got %q", resp.Data.Type)
	}
	if resp.Data.Status != database.ContactNew {
		t.Fatalf("expected status new got %q", resp.Data.Status)
	}
	if env.mail.sentCount() != 1 {
		t.Fatalf("expected 1 notification email got %d", env.mail.sentCount())
	}
}

func TestSubmitResumeRequiresFile(t *testing.T) {
	env := newTestEnv(t)

	w := env.doMultipart(t, http.MethodPost, "/api/contact/submit", "", map[string]string{
		"name":    "Applicant",
		"email":   "applicant@example.com",
		"message": "Hire me",
		"type":    database.ContactTypeResume,
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitResumeRejectsWrongMimetype(t *testing.T) {
	env := newTestEnv(t)

	// A renamed binary: .pdf extension but octet-stream content type.
	w := env.doMultipart(t, http.MethodPost, "/api/contact/submit", "", map[string]string{
		"name":    "Applicant",
		"email":   "applicant@example.com",
		"message": "Hire me",
		"type":    database.ContactTypeResume,
	}, []formFile{
		{field: "resume", filename: "cv.pdf", contentType: "application/octet-stream", content: []byte("MZ...")},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitResumeStoresFile(t *testing.T) {
	env := newTestEnv(t)

	w := env.doMultipart(t, http.MethodPost, "/api/contact/submit", "", map[string]string{
		"name":    "Applicant",
		"email":   "applicant@example.com",
		"message": "Hire me",
		"type":    database.ContactTypeResume,
	}, []formFile{
		{field: "resume", filename: "cv.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 fake")},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Resume struct {
				URL      string `json:"url"`
				Filename string `json:"filename"`
			} `json:"resume"`
		} `json:"data"`
	}
	decodeBody(t, w, &resp)
	if resp.Data.Resume.URL == "" {
		t.Fatal("expected resume url in the response")
	}
	if !strings.HasSuffix(resp.Data.Resume.Filename, ".pdf") {
		t.Fatalf("expected stored filename to keep the extension got %q", resp.Data.Resume.Filename)
	}

	onDisk := filepath.Join(env.uploadDir, resp.Data.Resume.Filename)
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("expected resume on disk at %s: %v", onDisk, err)
	}
}

func TestListSubmissionsRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(t, "user@example.com", database.RoleUser)
	_, hrToken := env.createUser(t, "hr@example.com", database.RoleHR)

	if err := env.db.Create(&database.ContactSubmission{
		Name: "Visitor", Email: "v@example.com", Message: "hi",
		Type: database.ContactTypeContact, Status: database.ContactNew,
	}).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	w := env.doJSON(t, http.MethodGet, "/api/contact/submissions", userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user: expected 403 got %d", w.Code)
	}

	w = env.doJSON(t, http.MethodGet, "/api/contact/submissions", hrToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("hr: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
	}
	decodeBody(t, w, &resp)
	if !resp.Success || resp.Count != 1 {
		t.Fatalf("unexpected list envelope: %+v", resp)
	}
}

func TestReplyAppendsAndEmails(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	if err := env.db.Create(&database.ContactSubmission{
		Name: "Visitor", Email: "v@example.com", Subject: "Pricing", Message: "hi",
		Type: database.ContactTypeContact, Status: database.ContactNew,
	}).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	w := env.doJSON(t, http.MethodPost, "/api/contact/submission/1/reply", adminToken, map[string]string{
		"message": "Thanks for reaching out",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.ContactSubmission
	if err := env.db.First(&stored, 1).Error; err != nil {
		t.Fatalf("load submission: %v", err)
	}
	if stored.Status != database.ContactReplied {
		t.Fatalf("expected status replied got %q", stored.Status)
	}
	if len(stored.Replies) == 0 {
		t.Fatal("expected a stored reply")
	}

	if env.mail.sentCount() != 1 {
		t.Fatalf("expected 1 reply email got %d", env.mail.sentCount())
	}
	env.mail.mu.Lock()
	sent := env.mail.sent[0]
	env.mail.mu.Unlock()
	if sent.To[0] != "v@example.com" {
		t.Fatalf("reply sent to %q", sent.To[0])
	}
}

func TestUpdateSubmissionStatus(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	if err := env.db.Create(&database.ContactSubmission{
		Name: "Visitor", Email: "v@example.com", Message: "hi",
		Type: database.ContactTypeContact, Status: database.ContactNew,
	}).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	w := env.doJSON(t, http.MethodPut, "/api/contact/submission/1/status", adminToken, map[string]string{
		"status": "archived",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400 got %d", w.Code)
	}

	w = env.doJSON(t, http.MethodPut, "/api/contact/submission/1/status", adminToken, map[string]string{
		"status": database.ContactRead,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.ContactSubmission
	env.db.First(&stored, 1)
	if stored.Status != database.ContactRead {
		t.Fatalf("expected read got %q", stored.Status)
	}
}

func TestDeleteSubmissionRemovesResumeFile(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", database.RoleAdmin)

	w := env.doMultipart(t, http.MethodPost, "/api/contact/submit", "", map[string]string{
		"name":    "Applicant",
		"email":   "applicant@example.com",
		"message": "Hire me",
		"type":    database.ContactTypeResume,
	}, []formFile{
		{field: "resume", filename: "cv.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 fake")},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.ContactSubmission
	if err := env.db.First(&stored, 1).Error; err != nil {
		t.Fatalf("load submission: %v", err)
	}
	onDisk := filepath.Join(env.uploadDir, stored.Resume.Filename)
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("resume missing before delete: %v", err)
	}

	w = env.doJSON(t, http.MethodDelete, "/api/contact/submission/1", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
		t.Fatalf("expected resume removed from disk, stat err=%v", err)
	}
}
