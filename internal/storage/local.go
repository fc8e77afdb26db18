package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore persists resume documents on the local filesystem.
type LocalStore struct {
	basePath string
	baseURL  string
}

// SavedFile describes a file written to disk.
type SavedFile struct {
	Filename     string
	OriginalName string
	Path         string
	URL          string
	Size         int64
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(basePath, baseURL string) (*LocalStore, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the reader to disk under a collision-resistant name
// derived from the original extension.
func (s *LocalStore) Save(originalName string, reader io.Reader) (*SavedFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	filename := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	fullPath := filepath.Join(s.basePath, filename)

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &SavedFile{
		Filename:     filename,
		OriginalName: originalName,
		Path:         fullPath,
		URL:          s.baseURL + "/uploads/" + filename,
		Size:         size,
	}, nil
}

// Delete removes a stored file. A missing file counts as success.
func (s *LocalStore) Delete(filename string) error {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." {
		return nil
	}
	if err := os.Remove(filepath.Join(s.basePath, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// BasePath exposes the directory static file serving mounts.
func (s *LocalStore) BasePath() string {
	return s.basePath
}
