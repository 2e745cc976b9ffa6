package upload

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"banner-editor/internal/image"
)

// FileStore writes assets below a local directory.
type FileStore struct {
	basePath string
	baseURL  string
	prefix   string
}

// NewFileStore creates the base directory if needed. When baseURL is empty
// the returned URLs are file:// URLs.
func NewFileStore(basePath, baseURL, prefix string) (*FileStore, error) {
	if basePath == "" {
		basePath = "./data"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", basePath, err)
	}
	return &FileStore{basePath: abs, baseURL: baseURL, prefix: prefix}, nil
}

// Upload writes the asset and returns its URL.
func (s *FileStore) Upload(ctx context.Context, asset *image.CroppedAsset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectKey(s.prefix, asset.FileName())
	filePath := filepath.Join(s.basePath, filepath.FromSlash(key))
	log := logrus.WithFields(logrus.Fields{
		"device":    asset.Device.String(),
		"file_path": filePath,
	})

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create asset directory")
		return "", err
	}
	if err := os.WriteFile(filePath, asset.Data, 0644); err != nil {
		log.WithError(err).Error("Failed to write asset")
		return "", err
	}
	log.Info("Asset stored")

	if s.baseURL != "" {
		return joinURL(s.baseURL, key), nil
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filePath)}).String(), nil
}
