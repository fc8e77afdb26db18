package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/auth"
	"speshway/internal/database"
	"speshway/internal/mailer"
)

const invalidCredentialsMessage = "invalid email or password"
const invalidOTPMessage = "invalid or expired OTP"

// AuthHandler handles registration, login, profile reads and the
// OTP-based password reset flow.
type AuthHandler struct {
	db          *gorm.DB
	authService *auth.AuthService
	mailer      mailer.Mailer
	otpTTL      time.Duration
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(db *gorm.DB, authService *auth.AuthService, mail mailer.Mailer, otpTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authService: authService,
		mailer:      mail,
		otpTTL:      otpTTL,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=128"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role"`
}

type authResponse struct {
	ID    uint   `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

type profileResponse struct {
	ID        uint      `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Register creates a new account and returns a signed bearer token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	role := req.Role
	switch role {
	case "":
		role = database.RoleUser
	case database.RoleUser, database.RoleHR, database.RoleAdmin:
	default:
		BadRequest(c, "invalid role")
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	var existing database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		logger.Info("register conflict: email already in use")
		BadRequest(c, "user already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("register lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	hashed, err := h.authService.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	user := database.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Role)
	if err != nil {
		logger.Error("generate token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	c.JSON(http.StatusCreated, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a bearer token. Unknown email
// and wrong password answer identically to avoid user enumeration.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	var user database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("login failed: user not found")
			Unauthorized(c, invalidCredentialsMessage)
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if !h.authService.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("user_id", uint64(user.ID)))
		Unauthorized(c, invalidCredentialsMessage)
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Role)
	if err != nil {
		logger.Error("generate token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// Me returns the caller's profile without the password hash.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "user not found")
			return
		}
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

type requestOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestOTP stores a short-lived 6-digit code on the user and mails it.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req requestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	var user database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "user not found")
			return
		}
		logger.Error("otp lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		logger.Error("generate otp failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	expires := time.Now().Add(h.otpTTL)
	updates := map[string]any{
		"reset_otp":         code,
		"reset_otp_expires": expires,
	}
	if err := h.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		logger.Error("store otp failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	body, err := mailer.OTPBody(mailer.OTPData{
		Name:    user.Name,
		Code:    code,
		Minutes: int(h.otpTTL.Minutes()),
	})
	if err != nil {
		logger.Error("render otp mail failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if err := h.mailer.Send([]string{user.Email}, "Your password reset code", body); err != nil {
		logger.Warn("send otp mail failed", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email"})
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP checks the code without consuming it.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if _, ok := h.lookupUserForOTP(c, req.Email, req.OTP); !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// ResetPassword re-validates the OTP, replaces the password and clears
// the OTP fields in the same write, consuming the code.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	user, ok := h.lookupUserForOTP(c, req.Email, req.OTP)
	if !ok {
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(user.ID)))

	hashed, err := h.authService.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	updates := map[string]any{
		"password_hash":     hashed,
		"reset_otp":         "",
		"reset_otp_expires": nil,
	}
	if err := h.db.WithContext(c.Request.Context()).Model(user).Updates(updates).Error; err != nil {
		logger.Error("reset password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("password reset completed")
	c.JSON(http.StatusOK, gin.H{"message": "password reset successful"})
}

// lookupUserForOTP loads the user and validates code equality and expiry.
// Mismatch and expiry answer with the same message on purpose.
func (h *AuthHandler) lookupUserForOTP(c *gin.Context, email, otp string) (*database.User, bool) {
	ctx := c.Request.Context()
	email = strings.ToLower(strings.TrimSpace(email))

	var user database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			BadRequest(c, invalidOTPMessage)
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("otp lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}

	if user.ResetOTP == "" || user.ResetOTP != otp {
		BadRequest(c, invalidOTPMessage)
		return nil, false
	}
	if user.ResetOTPExpires == nil || time.Now().After(*user.ResetOTPExpires) {
		BadRequest(c, invalidOTPMessage)
		return nil, false
	}

	return &user, true
}
