package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/database"
)

// SettingsHandler manages the site-wide theme settings singleton.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

type settingsResponse struct {
	ID                uint      `json:"_id"`
	HeroTitleColor    string    `json:"heroTitleColor"`
	HeroSubtitleColor string    `json:"heroSubtitleColor"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toSettingsResponse(s database.Settings) settingsResponse {
	return settingsResponse{
		ID:                s.ID,
		HeroTitleColor:    s.HeroTitleColor,
		HeroSubtitleColor: s.HeroSubtitleColor,
		UpdatedAt:         s.UpdatedAt,
	}
}

// loadOrCreate returns the singleton row, creating it with defaults on
// first access.
func (h *SettingsHandler) loadOrCreate(c *gin.Context) (*database.Settings, bool) {
	ctx := c.Request.Context()

	var settings database.Settings
	err := h.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := h.db.WithContext(ctx).Create(&settings).Error; err != nil {
			middleware.LoggerFromContext(c).Error("create settings failed", slog.Any("error", err))
			Internal(c, "failed to load settings")
			return nil, false
		}
		return &settings, true
	}
	if err != nil {
		Internal(c, "failed to load settings")
		return nil, false
	}
	return &settings, true
}

// Get returns the settings, creating the row on first read.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, ok := h.loadOrCreate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(*settings))
}

type updateSettingsRequest struct {
	HeroTitleColor    *string `json:"heroTitleColor"`
	HeroSubtitleColor *string `json:"heroSubtitleColor"`
}

// Update merges only the fields present in the request body.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	settings, ok := h.loadOrCreate(c)
	if !ok {
		return
	}

	if req.HeroTitleColor != nil {
		settings.HeroTitleColor = *req.HeroTitleColor
	}
	if req.HeroSubtitleColor != nil {
		settings.HeroSubtitleColor = *req.HeroSubtitleColor
	}

	if err := h.db.WithContext(c.Request.Context()).Save(settings).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update settings failed", slog.Any("error", err))
		Internal(c, "failed to update settings")
		return
	}

	c.JSON(http.StatusOK, toSettingsResponse(*settings))
}
