package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/cache"
	"speshway/internal/database"
)

const teamPath = "/api/team"

// TeamHandler implements CRUD for team members.
type TeamHandler struct {
	db      *gorm.DB
	storage ObjectStorage
	cache   cache.Store
}

// NewTeamHandler constructs the handler.
func NewTeamHandler(db *gorm.DB, store ObjectStorage, cacheStore cache.Store) *TeamHandler {
	return &TeamHandler{db: db, storage: store, cache: cacheStore}
}

type teamMemberResponse struct {
	ID        uint           `json:"_id"`
	Name      string         `json:"name"`
	Role      string         `json:"role"`
	Bio       string         `json:"bio"`
	Color     string         `json:"color"`
	LinkedIn  string         `json:"linkedin"`
	Email     string         `json:"email"`
	Image     database.Image `json:"image"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func toTeamMemberResponse(m database.TeamMember) teamMemberResponse {
	return teamMemberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Role:      m.Role,
		Bio:       m.Bio,
		Color:     m.Color,
		LinkedIn:  m.LinkedIn,
		Email:     m.Email,
		Image:     m.Image,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// List returns every team member sorted by recency.
func (h *TeamHandler) List(c *gin.Context) {
	var members []database.TeamMember
	if err := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Find(&members).Error; err != nil {
		Internal(c, "failed to list team members")
		return
	}

	items := make([]teamMemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, toTeamMemberResponse(m))
	}
	c.JSON(http.StatusOK, items)
}

// Get returns one team member by id.
func (h *TeamHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid team member id")
		return
	}

	var member database.TeamMember
	if err := h.db.WithContext(c.Request.Context()).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "team member not found")
			return
		}
		Internal(c, "failed to query team member")
		return
	}

	c.JSON(http.StatusOK, toTeamMemberResponse(member))
}

// Create persists a new team member with an optional profile image.
func (h *TeamHandler) Create(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)

	name := c.PostForm("name")
	role := c.PostForm("role")
	if name == "" || role == "" {
		BadRequest(c, "name and role are required")
		return
	}

	image, err := saveFormImage(c, h.storage, "team")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload team image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}

	member := database.TeamMember{
		Name:     name,
		Role:     role,
		Bio:      c.PostForm("bio"),
		Color:    c.PostForm("color"),
		LinkedIn: c.PostForm("linkedin"),
		Email:    c.PostForm("email"),
	}
	if image != nil {
		member.Image = *image
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&member).Error; err != nil {
		logger.Error("create team member failed", slog.Any("error", err))
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		Internal(c, "failed to create team member")
		return
	}

	invalidateCache(c, h.cache, teamPath)
	c.JSON(http.StatusCreated, toTeamMemberResponse(member))
}

// Update merges only the fields present in the request.
func (h *TeamHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid team member id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var member database.TeamMember
	if err := h.db.WithContext(ctx).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "team member not found")
			return
		}
		Internal(c, "failed to query team member")
		return
	}

	if v, ok := c.GetPostForm("name"); ok {
		member.Name = v
	}
	if v, ok := c.GetPostForm("role"); ok {
		member.Role = v
	}
	if v, ok := c.GetPostForm("bio"); ok {
		member.Bio = v
	}
	if v, ok := c.GetPostForm("color"); ok {
		member.Color = v
	}
	if v, ok := c.GetPostForm("linkedin"); ok {
		member.LinkedIn = v
	}
	if v, ok := c.GetPostForm("email"); ok {
		member.Email = v
	}

	previousImage := member.Image
	image, err := saveFormImage(c, h.storage, "team")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload team image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}
	if image != nil {
		member.Image = *image
	}

	if err := h.db.WithContext(ctx).Save(&member).Error; err != nil {
		logger.Error("update team member failed", slog.Any("error", err))
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		Internal(c, "failed to update team member")
		return
	}

	if image != nil && previousImage.PublicID != "" {
		deleteObjectAsync(logger, h.storage, previousImage.PublicID)
	}

	invalidateCache(c, h.cache, teamPath)
	c.JSON(http.StatusOK, toTeamMemberResponse(member))
}

// Delete removes the team member and their remote asset.
func (h *TeamHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid team member id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var member database.TeamMember
	if err := h.db.WithContext(ctx).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "team member not found")
			return
		}
		Internal(c, "failed to query team member")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&member).Error; err != nil {
		logger.Error("delete team member failed", slog.Any("error", err))
		Internal(c, "failed to delete team member")
		return
	}

	deleteObjectAsync(logger, h.storage, member.Image.PublicID)
	invalidateCache(c, h.cache, teamPath)
	c.JSON(http.StatusOK, gin.H{"message": "team member deleted"})
}
