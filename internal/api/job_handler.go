package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"speshway/internal/api/middleware"
	"speshway/internal/cache"
	"speshway/internal/database"
)

const jobsPath = "/api/jobs"

// jobCounterName is the counter row used for sequential job numbering.
const jobCounterName = "job"

// JobHandler implements CRUD for job postings.
type JobHandler struct {
	db    *gorm.DB
	cache cache.Store
}

// NewJobHandler constructs the handler.
func NewJobHandler(db *gorm.DB, cacheStore cache.Store) *JobHandler {
	return &JobHandler{db: db, cache: cacheStore}
}

type jobResponse struct {
	ID          uint      `json:"_id"`
	JobNumber   uint      `json:"jobNumber"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Type        string    `json:"type"`
	Experience  string    `json:"experience"`
	Department  string    `json:"department"`
	Status      string    `json:"status"`
	PostedAt    time.Time `json:"postedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toJobResponse(j database.Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		JobNumber:   j.JobNumber,
		Title:       j.Title,
		Description: j.Description,
		Location:    j.Location,
		Type:        j.Type,
		Experience:  j.Experience,
		Department:  j.Department,
		Status:      j.Status,
		PostedAt:    j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func validJobType(t string) bool {
	switch t {
	case database.JobFullTime, database.JobPartTime, database.JobContract, database.JobInternship:
		return true
	}
	return false
}

func validJobStatus(s string) bool {
	switch s {
	case database.JobOpen, database.JobClosed:
		return true
	}
	return false
}

// nextJobNumber increments the shared counter inside tx and returns the
// new value. The single-row UPDATE serializes concurrent creators, so two
// jobs can never draw the same number. On first use the counter starts at
// the highest number already present, so imported rows that carry numbers
// are never collided with.
func nextJobNumber(tx *gorm.DB) (uint, error) {
	var maxNumber uint64
	if err := tx.Unscoped().Model(&database.Job{}).
		Select("COALESCE(MAX(job_number), 0)").
		Scan(&maxNumber).Error; err != nil {
		return 0, err
	}

	counter := database.JobCounter{Name: jobCounterName, Value: maxNumber}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&database.JobCounter{}).
		Where("name = ?", jobCounterName).
		Update("value", gorm.Expr("value + 1")).Error; err != nil {
		return 0, err
	}
	if err := tx.First(&counter, "name = ?", jobCounterName).Error; err != nil {
		return 0, err
	}
	return uint(counter.Value), nil
}

// List returns jobs sorted by recency, optionally filtered by ?status=.
func (h *JobHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&database.Job{})

	if status := c.Query("status"); status != "" {
		if !validJobStatus(status) {
			BadRequest(c, "invalid status")
			return
		}
		query = query.Where("status = ?", status)
	}

	var jobs []database.Job
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		Internal(c, "failed to list jobs")
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, toJobResponse(j))
	}
	c.JSON(http.StatusOK, items)
}

// Get returns one job by id. Rows created before sequential numbering
// existed carry number zero and get one assigned on first read.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid job id")
		return
	}

	ctx := c.Request.Context()

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}

	if job.JobNumber == 0 {
		err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := nextJobNumber(tx)
			if err != nil {
				return err
			}
			job.JobNumber = number
			return tx.Model(&job).Update("job_number", number).Error
		})
		if err != nil {
			middleware.LoggerFromContext(c).Error("backfill job number failed", slog.Any("error", err))
			Internal(c, "failed to query job")
			return
		}
		// Listings cached before the backfill still show number zero.
		invalidateCache(c, h.cache, jobsPath)
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}

type createJobRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	Experience  string `json:"experience"`
	Department  string `json:"department"`
	Status      string `json:"status"`
}

// Create persists a job and draws its sequential number from the counter
// in the same transaction.
func (h *JobHandler) Create(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if req.Type == "" {
		req.Type = database.JobFullTime
	}
	if !validJobType(req.Type) {
		BadRequest(c, "invalid job type")
		return
	}
	if req.Status == "" {
		req.Status = database.JobOpen
	}
	if !validJobStatus(req.Status) {
		BadRequest(c, "invalid status")
		return
	}

	logger := middleware.LoggerFromContext(c)

	job := database.Job{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Type:        req.Type,
		Experience:  req.Experience,
		Department:  req.Department,
		Status:      req.Status,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		number, err := nextJobNumber(tx)
		if err != nil {
			return err
		}
		job.JobNumber = number
		return tx.Create(&job).Error
	})
	if err != nil {
		logger.Error("create job failed", slog.Any("error", err))
		Internal(c, "failed to create job")
		return
	}

	invalidateCache(c, h.cache, jobsPath)
	c.JSON(http.StatusCreated, toJobResponse(job))
}

type updateJobRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	Experience  *string `json:"experience"`
	Department  *string `json:"department"`
	Status      *string `json:"status"`
}

// Update merges only the fields present in the request body. The job
// number is never mutable.
func (h *JobHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid job id")
		return
	}

	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Location != nil {
		job.Location = *req.Location
	}
	if req.Experience != nil {
		job.Experience = *req.Experience
	}
	if req.Department != nil {
		job.Department = *req.Department
	}
	if req.Type != nil {
		if !validJobType(*req.Type) {
			BadRequest(c, "invalid job type")
			return
		}
		job.Type = *req.Type
	}
	if req.Status != nil {
		if !validJobStatus(*req.Status) {
			BadRequest(c, "invalid status")
			return
		}
		job.Status = *req.Status
	}

	if err := h.db.WithContext(ctx).Save(&job).Error; err != nil {
		logger.Error("update job failed", slog.Any("error", err))
		Internal(c, "failed to update job")
		return
	}

	invalidateCache(c, h.cache, jobsPath)
	c.JSON(http.StatusOK, toJobResponse(job))
}

// Delete removes the job posting.
func (h *JobHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid job id")
		return
	}

	ctx := c.Request.Context()

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&job).Error; err != nil {
		middleware.LoggerFromContext(c).Error("delete job failed", slog.Any("error", err))
		Internal(c, "failed to delete job")
		return
	}

	invalidateCache(c, h.cache, jobsPath)
	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}
