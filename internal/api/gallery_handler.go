package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/cache"
	"speshway/internal/database"
)

const galleryPath = "/api/gallery"

// GalleryHandler implements CRUD for gallery/blog items.
type GalleryHandler struct {
	db      *gorm.DB
	storage ObjectStorage
	cache   cache.Store
}

// NewGalleryHandler constructs the handler.
func NewGalleryHandler(db *gorm.DB, store ObjectStorage, cacheStore cache.Store) *GalleryHandler {
	return &GalleryHandler{db: db, storage: store, cache: cacheStore}
}

type galleryItemResponse struct {
	ID               uint           `json:"_id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Image            database.Image `json:"image"`
	AdditionalImages datatypes.JSON `json:"additionalImages"`
	Category         string         `json:"category"`
	Date             *time.Time     `json:"date"`
	Location         string         `json:"location"`
	ReadMoreLink     string         `json:"readMoreLink"`
	IsActive         bool           `json:"isActive"`
	Order            int64          `json:"order"`
	CreatedBy        uint           `json:"createdBy"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func toGalleryItemResponse(g database.GalleryItem) galleryItemResponse {
	return galleryItemResponse{
		ID:               g.ID,
		Title:            g.Title,
		Description:      g.Description,
		Image:            g.Image,
		AdditionalImages: g.AdditionalImages,
		Category:         g.Category,
		Date:             g.Date,
		Location:         g.Location,
		ReadMoreLink:     g.ReadMoreLink,
		IsActive:         g.IsActive,
		Order:            g.Order,
		CreatedBy:        g.CreatedBy,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

func validGalleryCategory(category string) bool {
	for _, c := range database.GalleryCategories {
		if c == category {
			return true
		}
	}
	return false
}

// parseGalleryDate accepts a date-only or full timestamp value.
func parseGalleryDate(value string) (*time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", value)
}

// List returns gallery items, optionally filtered by category and paginated
// with ?page= and ?limit=. Explicit display order wins over recency.
func (h *GalleryHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&database.GalleryItem{})

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if active := c.Query("isActive"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	if limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	var items []database.GalleryItem
	if err := query.Order("\"order\" ASC, created_at DESC").Find(&items).Error; err != nil {
		Internal(c, "failed to list gallery items")
		return
	}

	out := make([]galleryItemResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGalleryItemResponse(g))
	}
	c.JSON(http.StatusOK, out)
}

// Categories returns the distinct categories in use, falling back to the
// full fixed set when the collection is empty.
func (h *GalleryHandler) Categories(c *gin.Context) {
	var categories []string
	if err := h.db.WithContext(c.Request.Context()).
		Model(&database.GalleryItem{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		Internal(c, "failed to list categories")
		return
	}

	if len(categories) == 0 {
		categories = database.GalleryCategories
	}
	c.JSON(http.StatusOK, categories)
}

// Get returns one gallery item by id.
func (h *GalleryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid gallery item id")
		return
	}

	var item database.GalleryItem
	if err := h.db.WithContext(c.Request.Context()).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "gallery item not found")
			return
		}
		Internal(c, "failed to query gallery item")
		return
	}

	c.JSON(http.StatusOK, toGalleryItemResponse(item))
}

// saveAdditionalImages uploads every "additionalImages" multipart file and
// returns the stored locations as a JSON array.
func (h *GalleryHandler) saveAdditionalImages(c *gin.Context) (datatypes.JSON, []string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read multipart form: %w", err)
	}

	files := form.File["additionalImages"]
	if len(files) == 0 {
		return nil, nil, nil
	}

	images := make([]database.Image, 0, len(files))
	keys := make([]string, 0, len(files))
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if _, ok := imageExtensions[ext]; !ok {
			return nil, keys, errNotAnImage
		}
		contentType := file.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return nil, keys, errNotAnImage
		}

		reader, err := file.Open()
		if err != nil {
			return nil, keys, fmt.Errorf("open image: %w", err)
		}

		objectKey := fmt.Sprintf("gallery/%s%s", uuid.NewString(), ext)
		result, err := h.storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType)
		reader.Close()
		if err != nil {
			return nil, keys, fmt.Errorf("upload image: %w", err)
		}

		images = append(images, database.Image{URL: result.URL, PublicID: result.PublicID})
		keys = append(keys, result.PublicID)
	}

	raw, err := json.Marshal(images)
	if err != nil {
		return nil, keys, err
	}
	return datatypes.JSON(raw), keys, nil
}

// Create persists a gallery item with a required category from the fixed
// set, a main image and any number of additional images.
func (h *GalleryHandler) Create(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)

	title := c.PostForm("title")
	category := c.PostForm("category")
	if title == "" || category == "" {
		BadRequest(c, "title and category are required")
		return
	}
	if !validGalleryCategory(category) {
		BadRequest(c, "invalid category")
		return
	}

	var date *time.Time
	if v := c.PostForm("date"); v != "" {
		parsed, err := parseGalleryDate(v)
		if err != nil {
			BadRequest(c, "invalid date")
			return
		}
		date = parsed
	}

	order := time.Now().Unix()
	if v := c.PostForm("order"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(c, "order must be an integer")
			return
		}
		order = parsed
	}

	isActive := true
	if v := c.PostForm("isActive"); v != "" {
		isActive = v == "true"
	}

	image, err := saveFormImage(c, h.storage, "gallery")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload gallery image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}

	additional, additionalKeys, err := h.saveAdditionalImages(c)
	cleanup := func() {
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		for _, key := range additionalKeys {
			deleteObjectAsync(logger, h.storage, key)
		}
	}
	if err != nil {
		cleanup()
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload additional images failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}

	userID, _ := userIDFromContext(c)

	item := database.GalleryItem{
		Title:            title,
		Description:      c.PostForm("description"),
		AdditionalImages: additional,
		Category:         category,
		Date:             date,
		Location:         c.PostForm("location"),
		ReadMoreLink:     c.PostForm("readMoreLink"),
		IsActive:         isActive,
		Order:            order,
		CreatedBy:        userID,
	}
	if image != nil {
		item.Image = *image
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		logger.Error("create gallery item failed", slog.Any("error", err))
		cleanup()
		Internal(c, "failed to create gallery item")
		return
	}

	invalidateCache(c, h.cache, galleryPath)
	c.JSON(http.StatusCreated, toGalleryItemResponse(item))
}

// Update merges only the fields present in the request.
func (h *GalleryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid gallery item id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var item database.GalleryItem
	if err := h.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "gallery item not found")
			return
		}
		Internal(c, "failed to query gallery item")
		return
	}

	if v, ok := c.GetPostForm("title"); ok {
		item.Title = v
	}
	if v, ok := c.GetPostForm("description"); ok {
		item.Description = v
	}
	if v, ok := c.GetPostForm("category"); ok {
		if !validGalleryCategory(v) {
			BadRequest(c, "invalid category")
			return
		}
		item.Category = v
	}
	if v, ok := c.GetPostForm("date"); ok {
		if v == "" {
			item.Date = nil
		} else {
			parsed, err := parseGalleryDate(v)
			if err != nil {
				BadRequest(c, "invalid date")
				return
			}
			item.Date = parsed
		}
	}
	if v, ok := c.GetPostForm("location"); ok {
		item.Location = v
	}
	if v, ok := c.GetPostForm("readMoreLink"); ok {
		item.ReadMoreLink = v
	}
	if v, ok := c.GetPostForm("isActive"); ok {
		item.IsActive = v == "true"
	}
	if v, ok := c.GetPostForm("order"); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			BadRequest(c, "order must be an integer")
			return
		}
		item.Order = parsed
	}

	previousImage := item.Image
	image, err := saveFormImage(c, h.storage, "gallery")
	if err != nil {
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload gallery image failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}
	if image != nil {
		item.Image = *image
	}

	previousAdditional := item.AdditionalImages
	additional, additionalKeys, err := h.saveAdditionalImages(c)
	if err != nil {
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		for _, key := range additionalKeys {
			deleteObjectAsync(logger, h.storage, key)
		}
		if errors.Is(err, errNotAnImage) {
			BadRequest(c, "unsupported image type")
			return
		}
		logger.Error("upload additional images failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}
	if additional != nil {
		item.AdditionalImages = additional
	}

	if err := h.db.WithContext(ctx).Save(&item).Error; err != nil {
		logger.Error("update gallery item failed", slog.Any("error", err))
		if image != nil {
			deleteObjectAsync(logger, h.storage, image.PublicID)
		}
		for _, key := range additionalKeys {
			deleteObjectAsync(logger, h.storage, key)
		}
		Internal(c, "failed to update gallery item")
		return
	}

	if image != nil && previousImage.PublicID != "" {
		deleteObjectAsync(logger, h.storage, previousImage.PublicID)
	}
	if additional != nil {
		for _, key := range imagePublicIDs(previousAdditional) {
			deleteObjectAsync(logger, h.storage, key)
		}
	}

	invalidateCache(c, h.cache, galleryPath)
	c.JSON(http.StatusOK, toGalleryItemResponse(item))
}

// Delete removes the gallery item and all of its remote assets.
func (h *GalleryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid gallery item id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var item database.GalleryItem
	if err := h.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "gallery item not found")
			return
		}
		Internal(c, "failed to query gallery item")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&item).Error; err != nil {
		logger.Error("delete gallery item failed", slog.Any("error", err))
		Internal(c, "failed to delete gallery item")
		return
	}

	deleteObjectAsync(logger, h.storage, item.Image.PublicID)
	for _, key := range imagePublicIDs(item.AdditionalImages) {
		deleteObjectAsync(logger, h.storage, key)
	}
	invalidateCache(c, h.cache, galleryPath)
	c.JSON(http.StatusOK, gin.H{"message": "gallery item deleted"})
}

// imagePublicIDs extracts the remote keys from a stored image array.
func imagePublicIDs(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var images []database.Image
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil
	}
	keys := make([]string, 0, len(images))
	for _, img := range images {
		if img.PublicID != "" {
			keys = append(keys, img.PublicID)
		}
	}
	return keys
}
