package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/cache"
	"speshway/internal/database"
)

const portfoliosPath = "/api/portfolios"

// PortfolioHandler implements CRUD for showcased projects.
type PortfolioHandler struct {
	db      *gorm.DB
	storage ObjectStorage
	cache   cache.Store
}

// NewPortfolioHandler constructs the handler.
func NewPortfolioHandler(db *gorm.DB, store ObjectStorage, cacheStore cache.Store) *PortfolioHandler {
	return &PortfolioHandler{db: db, storage: store, cache: cacheStore}
}

type portfolioResponse struct {
	ID           uint           `json:"_id"`
	Title        string         `json:"title"`
	Category     string         `json:"category"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	DemoURL      string         `json:"demoUrl"`
	Technologies datatypes.JSON `json:"technologies"`
	Features     datatypes.JSON `json:"features"`
	Results      datatypes.JSON `json:"results"`
	Color        string         `json:"color"`
	Image        database.Image `json:"image"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func toPortfolioResponse(p database.Portfolio) portfolioResponse {
	return portfolioResponse{
		ID:           p.ID,
		Title:        p.Title,
		Category:     p.Category,
		Description:  p.Description,
		Status:       p.Status,
		DemoURL:      p.DemoURL,
		Technologies: p.Technologies,
		Features:     p.Features,
		Results:      p.Results,
		Color:        p.Color,
		Image:        p.Image,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func validPortfolioStatus(status string) bool {
	switch status {
	case database.PortfolioUpcoming, database.PortfolioInProgress, database.PortfolioCompleted:
		return true
	}
	return false
}

// List returns every portfolio sorted by recency.
func (h *PortfolioHandler) List(c *gin.Context) {
	var portfolios []database.Portfolio
	if err := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Find(&portfolios).Error; err != nil {
		Internal(c, "failed to list portfolios")
		return
	}

	items := make([]portfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		items = append(items, toPortfolioResponse(p))
	}
	c.JSON(http.StatusOK, items)
}

// Get returns one portfolio by id.
func (h *PortfolioHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid portfolio id")
		return
	}

	var portfolio database.Portfolio
	if err := h.db.WithContext(c.Request.Context()).First(&portfolio, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "portfolio not found")
			return
		}
		Internal(c, "failed to query portfolio")
		return
	}

	c.JSON(http.StatusOK, toPortfolioResponse(portfolio))
}

// Create persists a new portfolio from multipart form fields with an
// optional image. If the insert fails after the upload succeeded, the
// fresh remote asset is destroyed best-effort.
func (h *PortfolioHandler) Create(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)

	title := c.PostForm("title")
	category := c.PostForm("category")
	description := c.PostForm("description")
	if title == "" || category == "" || description == "" {
		BadRequest(c, "title, category and description are required")
		return
	}

	status := c.PostForm("status")
	if status == "" {
		status = database.PortfolioUpcoming
	}
	if !validPortfolioStatus(status) {
		BadRequest(c, "invalid status")
		return
	}

	technologies, ok := jsonArrayField(c.PostForm("technologies"))
	if !ok {
		BadRequest(c, "technologies must be a JSON array")
		return
	}
	features, ok := jsonArrayField(c.PostForm("features"))
	if !ok {
		BadRequest(c, "features must be a JSON array")
		return
	}
	results, ok := jsonArrayField(c.PostForm("results"))
	if !ok {
		BadRequest(c, "results must be a JSON array")
		return
	}

	image, err := saveFormImage(c, h.storage, "portfolios")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload portfolio image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}

	portfolio := database.Portfolio{
		Title:        title,
		Category:     category,
		Description:  description,
		Status:       status,
		DemoURL:      c.PostForm("demoUrl"),
		Technologies: technologies,
		Features:     features,
		Results:      results,
		Color:        c.PostForm("color"),
	}
	if image != nil {
		portfolio.Image = *image
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&portfolio).Error; err != nil {
		logger.Error("create portfolio failed", slog.Any("error", err))
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		Internal(c, "failed to create portfolio")
		return
	}

	invalidateCache(c, h.cache, portfoliosPath)
	c.JSON(http.StatusCreated, toPortfolioResponse(portfolio))
}

// Update merges only the fields present in the request. A replacement
// image destroys the previous remote asset after the new one is attached.
func (h *PortfolioHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid portfolio id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var portfolio database.Portfolio
	if err := h.db.WithContext(ctx).First(&portfolio, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "portfolio not found")
			return
		}
		Internal(c, "failed to query portfolio")
		return
	}

	if v, ok := c.GetPostForm("title"); ok {
		portfolio.Title = v
	}
	if v, ok := c.GetPostForm("category"); ok {
		portfolio.Category = v
	}
	if v, ok := c.GetPostForm("description"); ok {
		portfolio.Description = v
	}
	if v, ok := c.GetPostForm("demoUrl"); ok {
		portfolio.DemoURL = v
	}
	if v, ok := c.GetPostForm("color"); ok {
		portfolio.Color = v
	}
	if v, ok := c.GetPostForm("status"); ok {
		if !validPortfolioStatus(v) {
			BadRequest(c, "invalid status")
			return
		}
		portfolio.Status = v
	}
	if v, ok := c.GetPostForm("technologies"); ok {
		parsed, valid := jsonArrayField(v)
		if !valid {
			BadRequest(c, "technologies must be a JSON array")
			return
		}
		portfolio.Technologies = parsed
	}
	if v, ok := c.GetPostForm("features"); ok {
		parsed, valid := jsonArrayField(v)
		if !valid {
			BadRequest(c, "features must be a JSON array")
			return
		}
		portfolio.Features = parsed
	}
	if v, ok := c.GetPostForm("results"); ok {
		parsed, valid := jsonArrayField(v)
		if !valid {
			BadRequest(c, "results must be a JSON array")
			return
		}
		portfolio.Results = parsed
	}

	previousImage := portfolio.Image
	image, err := saveFormImage(c, h.storage, "portfolios")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload portfolio image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}
	if image != nil {
		portfolio.Image = *image
	}

	if err := h.db.WithContext(ctx).Save(&portfolio).Error; err != nil {
		logger.Error("update portfolio failed", slog.Any("error", err))
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		Internal(c, "failed to update portfolio")
		return
	}

	if image != nil && previousImage.PublicID != "" {
		deleteObjectAsync(logger, h.storage, previousImage.PublicID)
	}

	invalidateCache(c, h.cache, portfoliosPath)
	c.JSON(http.StatusOK, toPortfolioResponse(portfolio))
}

// Delete removes the portfolio and its remote asset.
func (h *PortfolioHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid portfolio id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var portfolio database.Portfolio
	if err := h.db.WithContext(ctx).First(&portfolio, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "portfolio not found")
			return
		}
		Internal(c, "failed to query portfolio")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&portfolio).Error; err != nil {
		logger.Error("delete portfolio failed", slog.Any("error", err))
		Internal(c, "failed to delete portfolio")
		return
	}

	deleteObjectAsync(logger, h.storage, portfolio.Image.PublicID)
	invalidateCache(c, h.cache, portfoliosPath)
	c.JSON(http.StatusOK, gin.H{"message": "portfolio deleted"})
}
