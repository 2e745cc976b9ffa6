package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"banner-editor/internal/device"
)

var (
	ErrNotRendered  = errors.New("surface has not been rendered")
	ErrEmptySurface = errors.New("surface is empty")
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 95

// Format is an output encoding.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	default:
		return "jpeg"
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// ContentType returns the MIME type.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// ParseFormat parses "jpeg", "jpg" or "png".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return 0, fmt.Errorf("unknown export format %q", s)
	}
}

// CroppedAsset is an encoded export of one surface.
type CroppedAsset struct {
	Data   []byte
	Device device.Key
	Format Format
	Width  int
	Height int
}

// ContentType returns the MIME type of Data.
func (a *CroppedAsset) ContentType() string {
	return a.Format.ContentType()
}

// FileName returns the name the asset is uploaded under.
func (a *CroppedAsset) FileName() string {
	return a.Device.FileName(a.Format.Extension())
}

// Reader returns a reader over the encoded bytes.
func (a *CroppedAsset) Reader() io.Reader {
	return bytes.NewReader(a.Data)
}

// Exporter encodes rendered surfaces.
type Exporter struct {
	Format  Format
	Quality int // JPEG quality 1-100
}

// NewExporter returns an exporter for the given format and JPEG quality.
func NewExporter(format Format, quality int) Exporter {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return Exporter{Format: format, Quality: quality}
}

// Export encodes the surface. The surface is not modified, so a failed
// upload can be retried by exporting again.
func (e Exporter) Export(s *Surface) (*CroppedAsset, error) {
	if !s.Rendered() {
		return nil, ErrNotRendered
	}
	b := s.Bounds()
	if b.Empty() {
		return nil, ErrEmptySurface
	}

	var buf bytes.Buffer
	var err error
	switch e.Format {
	case FormatPNG:
		err = imaging.Encode(&buf, s.img, imaging.PNG)
	default:
		q := e.Quality
		if q < 1 || q > 100 {
			q = DefaultQuality
		}
		err = imaging.Encode(&buf, s.img, imaging.JPEG, imaging.JPEGQuality(q))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Format, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("failed to encode %s: empty output", e.Format)
	}

	asset := &CroppedAsset{
		Data:   buf.Bytes(),
		Device: s.device,
		Format: e.Format,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	logrus.WithFields(logrus.Fields{
		"device": asset.Device.String(),
		"format": asset.Format.String(),
		"bytes":  len(asset.Data),
	}).Info("Exported surface")
	return asset, nil
}
