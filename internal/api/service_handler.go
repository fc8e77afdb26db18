package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/cache"
	"speshway/internal/database"
)

const servicesPath = "/api/services"

// ServiceHandler implements CRUD for service offerings.
type ServiceHandler struct {
	db      *gorm.DB
	storage ObjectStorage
	cache   cache.Store
}

// NewServiceHandler constructs the handler.
func NewServiceHandler(db *gorm.DB, store ObjectStorage, cacheStore cache.Store) *ServiceHandler {
	return &ServiceHandler{db: db, storage: store, cache: cacheStore}
}

type serviceResponse struct {
	ID          uint           `json:"_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Features    datatypes.JSON `json:"features"`
	Color       string         `json:"color"`
	Image       database.Image `json:"image"`
	Order       int64          `json:"order"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func toServiceResponse(s database.Service) serviceResponse {
	return serviceResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Icon:        s.Icon,
		Features:    s.Features,
		Color:       s.Color,
		Image:       s.Image,
		Order:       s.Order,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// List returns every service, explicit order first, newest after.
func (h *ServiceHandler) List(c *gin.Context) {
	var services []database.Service
	if err := h.db.WithContext(c.Request.Context()).
		Order("\"order\" ASC, created_at DESC").
		Find(&services).Error; err != nil {
		Internal(c, "failed to list services")
		return
	}

	items := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		items = append(items, toServiceResponse(s))
	}
	c.JSON(http.StatusOK, items)
}

// Get returns one service by id.
func (h *ServiceHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid service id")
		return
	}

	var service database.Service
	if err := h.db.WithContext(c.Request.Context()).First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "service not found")
			return
		}
		Internal(c, "failed to query service")
		return
	}

	c.JSON(http.StatusOK, toServiceResponse(service))
}

// Create persists a new service with an optional illustration image.
func (h *ServiceHandler) Create(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)

	title := c.PostForm("title")
	description := c.PostForm("description")
	if title == "" || description == "" {
		BadRequest(c, "title and description are required")
		return
	}

	features, ok := jsonArrayField(c.PostForm("features"))
	if !ok {
		BadRequest(c, "features must be a JSON array")
		return
	}

	var order int64
	if v := c.PostForm("order"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(c, "order must be an integer")
			return
		}
		order = parsed
	}

	image, err := saveFormImage(c, h.storage, "services")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload service image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}

	service := database.Service{
		Title:       title,
		Description: description,
		Icon:        c.PostForm("icon"),
		Features:    features,
		Color:       c.PostForm("color"),
		Order:       order,
	}
	if image != nil {
		service.Image = *image
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&service).Error; err != nil {
		logger.Error("create service failed", slog.Any("error", err))
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		Internal(c, "failed to create service")
		return
	}

	invalidateCache(c, h.cache, servicesPath)
	c.JSON(http.StatusCreated, toServiceResponse(service))
}

// Update merges only the fields present in the request.
func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid service id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var service database.Service
	if err := h.db.WithContext(ctx).First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "service not found")
			return
		}
		Internal(c, "failed to query service")
		return
	}

	if v, ok := c.GetPostForm("title"); ok {
		service.Title = v
	}
	if v, ok := c.GetPostForm("description"); ok {
		service.Description = v
	}
	if v, ok := c.GetPostForm("icon"); ok {
		service.Icon = v
	}
	if v, ok := c.GetPostForm("color"); ok {
		service.Color = v
	}
	if v, ok := c.GetPostForm("order"); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(c, "order must be an integer")
			return
		}
		service.Order = parsed
	}
	if v, ok := c.GetPostForm("features"); ok {
		parsed, valid := jsonArrayField(v)
		if !valid {
			BadRequest(c, "features must be a JSON array")
			return
		}
		service.Features = parsed
	}

	previousImage := service.Image
	image, err := saveFormImage(c, h.storage, "services")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload service image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}
	if image != nil {
		service.Image = *image
	}

	if err := h.db.WithContext(ctx).Save(&service).Error; err != nil {
		logger.Error("update service failed", slog.Any("error", err))
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		Internal(c, "failed to update service")
		return
	}

	if image != nil && previousImage.PublicID != "" {
		deleteObjectAsync(logger, h.storage, previousImage.PublicID)
	}

	invalidateCache(c, h.cache, servicesPath)
	c.JSON(http.StatusOK, toServiceResponse(service))
}

// Delete removes the service and its remote asset.
func (h *ServiceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid service id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var service database.Service
	if err := h.db.WithContext(ctx).First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "service not found")
			return
		}
		Internal(c, "failed to query service")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&service).Error; err != nil {
		logger.Error("delete service failed", slog.Any("error", err))
		Internal(c, "failed to delete service")
		return
	}

	deleteObjectAsync(logger, h.storage, service.Image.PublicID)
	invalidateCache(c, h.cache, servicesPath)
	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}
