package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"speshway/internal/database"
	"speshway/internal/storage"
)

// ObjectStorage is the remote image store surface the controllers use.
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*storage.UploadResult, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".gif":  {},
}

var errNotAnImage = errors.New("unsupported image type")

// saveFormImage uploads the optional "image" multipart field into the
// given folder and returns the stored location. Returns (nil, nil) when
// the request carries no image.
func saveFormImage(c *gin.Context, store ObjectStorage, folder string) (*database.Image, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("read image field: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := imageExtensions[ext]; !ok {
		return nil, errNotAnImage
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errNotAnImage
	}

	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer reader.Close()

	objectKey := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)
	result, err := store.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	return &database.Image{URL: result.URL, PublicID: result.PublicID}, nil
}
