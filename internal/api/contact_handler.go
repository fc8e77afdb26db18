package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/database"
	"speshway/internal/mailer"
	"speshway/internal/storage"
)

var resumeExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContactHandler handles the public contact form and the staff-facing
// submission management endpoints.
type ContactHandler struct {
	db             *gorm.DB
	files          *storage.LocalStore
	mailer         mailer.Mailer
	notifyTo       string
	maxResumeBytes int64
	clamdAddr      string
}

// NewContactHandler constructs the handler. clamdAddr empty disables
// virus scanning.
func NewContactHandler(db *gorm.DB, files *storage.LocalStore, mail mailer.Mailer, notifyTo string, maxResumeBytes int64, clamdAddr string) *ContactHandler {
	return &ContactHandler{
		db:             db,
		files:          files,
		mailer:         mail,
		notifyTo:       notifyTo,
		maxResumeBytes: maxResumeBytes,
		clamdAddr:      clamdAddr,
	}
}

type contactResponse struct {
	ID        uint            `json:"_id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Subject   string          `json:"subject"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Resume    database.Resume `json:"resume"`
	Status    string          `json:"status"`
	Replies   datatypes.JSON  `json:"replies"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toContactResponse(s database.ContactSubmission) contactResponse {
	return contactResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Subject:   s.Subject,
		Message:   s.Message,
		Type:      s.Type,
		Resume:    s.Resume,
		Status:    s.Status,
		Replies:   s.Replies,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type submitRequest struct {
	Name    string `json:"name" form:"name" binding:"required"`
	Email   string `json:"email" form:"email" binding:"required,email"`
	Phone   string `json:"phone" form:"phone"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message" binding:"required"`
	Type    string `json:"type" form:"type"`
}

// validateResume enforces extension, mimetype and size limits before
// anything touches disk.
func (h *ContactHandler) validateResume(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	wantType, ok := resumeExtensions[ext]
	if !ok {
		return errors.New("resume must be a PDF or Word document")
	}
	contentType := file.Header.Get("Content-Type")
	if contentType != wantType {
		return errors.New("resume must be a PDF or Word document")
	}
	if file.Size > h.maxResumeBytes {
		return fmt.Errorf("resume exceeds the %dMB limit", h.maxResumeBytes/(1<<20))
	}
	return nil
}

// scanResume streams the file through clamd when a scanner is configured.
func (h *ContactHandler) scanResume(file *multipart.FileHeader) error {
	if h.clamdAddr == "" {
		return nil
	}

	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open resume: %w", err)
	}
	defer reader.Close()

	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := clamd.NewClamd(h.clamdAddr).ScanStream(reader, abortChan)
	if err != nil {
		return fmt.Errorf("scan resume: %w", err)
	}
	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errors.New("malicious file detected")
		}
	}
	return nil
}

// Submit accepts the public contact form, as plain JSON or as multipart
// with a resume attachment. A resume is mandatory when type is "resume".
func (h *ContactHandler) Submit(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)

	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	submissionType := req.Type
	if submissionType == "" {
		submissionType = database.ContactTypeContact
	}
	if submissionType != database.ContactTypeContact && submissionType != database.ContactTypeResume {
		BadRequest(c, "invalid submission type")
		return
	}

	file, err := c.FormFile("resume")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		BadRequest(c, "invalid resume upload")
		return
	}
	if submissionType == database.ContactTypeResume && file == nil {
		BadRequest(c, "resume file is required")
		return
	}

	submission := database.ContactSubmission{
		Name:    req.Name,
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
		Type:    submissionType,
		Status:  database.ContactNew,
	}

	if file != nil {
		if err := h.validateResume(file); err != nil {
			BadRequest(c, err.Error())
			return
		}
		if err := h.scanResume(file); err != nil {
			logger.Warn("resume rejected", slog.Any("error", err))
			BadRequest(c, "resume failed the safety check")
			return
		}

		reader, err := file.Open()
		if err != nil {
			Internal(c, "failed to read resume")
			return
		}
		saved, err := h.files.Save(file.Filename, reader)
		reader.Close()
		if err != nil {
			logger.Error("save resume failed", slog.Any("error", err))
			Internal(c, "failed to store resume")
			return
		}

		submission.Resume = database.Resume{
			Filename:     saved.Filename,
			OriginalName: saved.OriginalName,
			Mimetype:     file.Header.Get("Content-Type"),
			Size:         saved.Size,
			Path:         saved.Path,
			URL:          saved.URL,
		}
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&submission).Error; err != nil {
		logger.Error("create submission failed", slog.Any("error", err))
		if submission.Resume.Filename != "" {
			if rmErr := h.files.Delete(submission.Resume.Filename); rmErr != nil {
				logger.Warn("cleanup resume failed", slog.Any("error", rmErr))
			}
		}
		Internal(c, "failed to save submission")
		return
	}

	h.notifyStaff(logger, submission)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    toContactResponse(submission),
	})
}

// notifyStaff emails the inbox address about a new submission. Failures
// are logged and never surface to the submitter.
func (h *ContactHandler) notifyStaff(logger *slog.Logger, submission database.ContactSubmission) {
	if h.notifyTo == "" {
		return
	}

	body, err := mailer.ContactBody(mailer.ContactData{
		Kind:       submission.Type,
		Name:       submission.Name,
		Email:      submission.Email,
		Phone:      submission.Phone,
		Subject:    submission.Subject,
		Message:    submission.Message,
		ResumeURL:  submission.Resume.URL,
		ResumeName: submission.Resume.OriginalName,
	})
	if err != nil {
		logger.Warn("render notification failed", slog.Any("error", err))
		return
	}

	subject := fmt.Sprintf("New %s submission from %s", submission.Type, submission.Name)
	if err := h.mailer.Send([]string{h.notifyTo}, subject, body); err != nil {
		logger.Warn("send notification failed", slog.Any("error", err))
	}
}

// List returns all submissions, newest first.
func (h *ContactHandler) List(c *gin.Context) {
	var submissions []database.ContactSubmission
	if err := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		Internal(c, "failed to list submissions")
		return
	}

	items := make([]contactResponse, 0, len(submissions))
	for _, s := range submissions {
		items = append(items, toContactResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(items),
		"data":    items,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves a submission between new, read and replied.
func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid submission id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	switch req.Status {
	case database.ContactNew, database.ContactRead, database.ContactReplied:
	default:
		BadRequest(c, "invalid status")
		return
	}

	ctx := c.Request.Context()

	var submission database.ContactSubmission
	if err := h.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "submission not found")
			return
		}
		Internal(c, "failed to query submission")
		return
	}

	if err := h.db.WithContext(ctx).Model(&submission).Update("status", req.Status).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update status failed", slog.Any("error", err))
		Internal(c, "failed to update submission")
		return
	}
	submission.Status = req.Status

	c.JSON(http.StatusOK, gin.H{"success": true, "data": toContactResponse(submission)})
}

type replyRequest struct {
	Message string `json:"message" binding:"required"`
}

type replyEntry struct {
	Message   string    `json:"message"`
	RepliedBy uint      `json:"repliedBy"`
	RepliedAt time.Time `json:"repliedAt"`
}

// Reply appends a threaded reply, flips status to replied, and then
// emails the submitter. The reply is durable before the email attempt,
// so a failing mail provider cannot lose it.
func (h *ContactHandler) Reply(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid submission id")
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var submission database.ContactSubmission
	if err := h.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "submission not found")
			return
		}
		Internal(c, "failed to query submission")
		return
	}

	userID, _ := userIDFromContext(c)

	var replies []replyEntry
	if len(submission.Replies) > 0 {
		if err := json.Unmarshal(submission.Replies, &replies); err != nil {
			logger.Error("decode replies failed", slog.Any("error", err))
			Internal(c, "failed to update submission")
			return
		}
	}
	replies = append(replies, replyEntry{
		Message:   req.Message,
		RepliedBy: userID,
		RepliedAt: time.Now(),
	})

	raw, err := json.Marshal(replies)
	if err != nil {
		Internal(c, "failed to update submission")
		return
	}

	updates := map[string]any{
		"replies": datatypes.JSON(raw),
		"status":  database.ContactReplied,
	}
	if err := h.db.WithContext(ctx).Model(&submission).Updates(updates).Error; err != nil {
		logger.Error("save reply failed", slog.Any("error", err))
		Internal(c, "failed to update submission")
		return
	}
	submission.Replies = datatypes.JSON(raw)
	submission.Status = database.ContactReplied

	subject := submission.Subject
	if subject == "" {
		subject = "your message to Speshway Solutions"
	}
	body, err := mailer.ReplyBody(mailer.ReplyData{
		Name:    submission.Name,
		Subject: subject,
		Message: req.Message,
	})
	if err != nil {
		logger.Warn("render reply mail failed", slog.Any("error", err))
	} else if err := h.mailer.Send([]string{submission.Email}, "Re: "+subject, body); err != nil {
		logger.Warn("send reply mail failed", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": toContactResponse(submission)})
}

// Delete removes the submission and its resume file from disk.
func (h *ContactHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		BadRequest(c, "invalid submission id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var submission database.ContactSubmission
	if err := h.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "submission not found")
			return
		}
		Internal(c, "failed to query submission")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&submission).Error; err != nil {
		logger.Error("delete submission failed", slog.Any("error", err))
		Internal(c, "failed to delete submission")
		return
	}

	if submission.Resume.Filename != "" {
		if err := h.files.Delete(submission.Resume.Filename); err != nil {
			logger.Warn("delete resume file failed", slog.Any("error", err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "submission deleted"})
}
