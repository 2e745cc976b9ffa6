// Package image provides source loading, the crop render engine, and export
// of rendered surfaces to compressed assets.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxFileSize is the largest source file accepted for editing.
const MaxFileSize = 5 * 1024 * 1024

// headerSize is how many leading bytes are needed to sniff the file type.
const headerSize = 262

var (
	ErrUnsupportedType = errors.New("file is not an image")
	ErrTooLarge        = errors.New("image exceeds 5MB")
	ErrDecode          = errors.New("failed to decode image")
)

// Source is a decoded raster image ready for editing. It is immutable once
// created; EXIF orientation has already been applied, so Width and Height
// are the upright natural size.
type Source struct {
	Name   string // File path or URL the image came from
	Format string // Sniffed file extension, e.g. "jpg"
	img    image.Image
}

// NewSource wraps an already decoded image.
func NewSource(img image.Image, name string) (*Source, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: empty image", ErrDecode, name)
	}
	return &Source{Name: name, img: img}, nil
}

// Image returns the decoded image.
func (s *Source) Image() image.Image {
	if s == nil {
		return nil
	}
	return s.img
}

// Width returns the natural width in pixels.
func (s *Source) Width() int {
	if s == nil || s.img == nil {
		return 0
	}
	return s.img.Bounds().Dx()
}

// Height returns the natural height in pixels.
func (s *Source) Height() int {
	if s == nil || s.img == nil {
		return 0
	}
	return s.img.Bounds().Dy()
}

// Ready reports whether the source holds decoded pixels.
func (s *Source) Ready() bool {
	return s != nil && s.img != nil && !s.img.Bounds().Empty()
}

// Validate checks that the leading bytes of a file identify an image type
// and that the file is within MaxFileSize.
func Validate(header []byte, size int64) (string, error) {
	if size > MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	kind, err := filetype.Match(header)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if kind.MIME.Type != "image" {
		return "", fmt.Errorf("%w: detected %q", ErrUnsupportedType, kind.MIME.Value)
	}
	return kind.Extension, nil
}

// Open validates and decodes the image at path.
func Open(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrTooLarge)
	}

	return Decode(file, path)
}

// Decode validates and decodes an image read from r. name is only used for
// logging and error messages.
func Decode(r io.Reader, name string) (*Source, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	header := data
	if len(header) > headerSize {
		header = header[:headerSize]
	}
	format, err := Validate(header, int64(len(data)))
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"source": name,
			"format": format,
		}).WithError(err).Warn("Image decode failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}

	src, err := NewSource(img, name)
	if err != nil {
		return nil, err
	}
	src.Format = format

	logrus.WithFields(logrus.Fields{
		"source": name,
		"format": format,
		"width":  src.Width(),
		"height": src.Height(),
	}).Info("Image loaded")
	return src, nil
}

// Fetch downloads and decodes a previously stored image so it can be
// edited again. file:// URLs, as written by the filesystem store without a
// public base URL, are read from disk and their query is ignored.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (*Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if u.Scheme == "file" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Open(filepath.FromSlash(u.Path))
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: %s", resp.Status)
	}
	if resp.ContentLength > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	return Decode(resp.Body, rawURL)
}

// SupportedFormats returns the file extensions offered in file dialogs.
func SupportedFormats() []string {
	return []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp", ".tif", ".tiff"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
