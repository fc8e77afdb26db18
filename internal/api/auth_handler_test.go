package api

import (
	"net/http"
	"testing"
	"time"

	"speshway/internal/database"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var created struct {
		ID    uint   `json:"_id"`
		Role  string `json:"role"`
		Token string `json:"token"`
	}
	decodeBody(t, w, &created)
	if created.Role != database.RoleUser {
		t.Fatalf("expected default role user got %q", created.Role)
	}
	if created.Token == "" {
		t.Fatal("expected a token in the register response")
	}

	w = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var logged struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &logged)

	w = env.doJSON(t, http.MethodGet, "/api/auth/me", logged.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken@example.com", database.RoleUser)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Bob",
		"email":    "taken@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "password123",
		"role":     "superuser",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

// Unknown email and wrong password must both answer 401 with the same
// message, so callers cannot probe which addresses have accounts.
func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "known@example.com", database.RoleUser)

	unknown := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	wrongPassword := env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "known@example.com",
		"password": "not-the-password",
	})

	if unknown.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: expected 401 got %d", unknown.Code)
	}
	if wrongPassword.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401 got %d", wrongPassword.Code)
	}
	if unknown.Body.String() != wrongPassword.Body.String() {
		t.Fatalf("responses differ: %q vs %q", unknown.Body.String(), wrongPassword.Body.String())
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "reset@example.com", database.RoleUser)

	w := env.doJSON(t, http.MethodPost, "/api/auth/forgot/request-otp", "", map[string]string{
		"email": "reset@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("forgot-password: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if env.mail.sentCount() != 1 {
		t.Fatalf("expected 1 OTP email got %d", env.mail.sentCount())
	}

	var user database.User
	if err := env.db.Where("email = ?", "reset@example.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if len(user.ResetOTP) != 6 {
		t.Fatalf("expected a 6-digit OTP got %q", user.ResetOTP)
	}

	w = env.doJSON(t, http.MethodPost, "/api/auth/forgot/verify", "", map[string]string{
		"email": "reset@example.com",
		"otp":   user.ResetOTP,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify-otp: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	w = env.doJSON(t, http.MethodPost, "/api/auth/forgot/reset", "", map[string]string{
		"email":    "reset@example.com",
		"otp":      user.ResetOTP,
		"password": "brand-new-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reset-password: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	// The code is consumed; a second reset with it must fail.
	w = env.doJSON(t, http.MethodPost, "/api/auth/forgot/reset", "", map[string]string{
		"email":    "reset@example.com",
		"otp":      user.ResetOTP,
		"password": "another-pass",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reused OTP: expected 400 got %d", w.Code)
	}

	w = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "reset@example.com",
		"password": "brand-new-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login with new password: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestExpiredOTPRejected(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "stale@example.com", database.RoleUser)

	expired := time.Now().Add(-time.Minute)
	if err := env.db.Model(&user).Updates(map[string]any{
		"reset_otp":         "123456",
		"reset_otp_expires": expired,
	}).Error; err != nil {
		t.Fatalf("seed otp: %v", err)
	}

	w := env.doJSON(t, http.MethodPost, "/api/auth/forgot/verify", "", map[string]string{
		"email": "stale@example.com",
		"otp":   "123456",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}
