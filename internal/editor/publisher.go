package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"banner-editor/internal/device"
	"banner-editor/internal/image"
)

// ErrUploadInProgress is returned when a device already has a publish
// running.
var ErrUploadInProgress = errors.New("upload already in progress")

// Uploader stores an encoded asset and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, asset *image.CroppedAsset) (string, error)
}

// SlotStore records the published URL for a device.
type SlotStore interface {
	Set(ctx context.Context, key, value string) error
}

// Publisher uploads exported assets and records their URLs. Publish is
// safe to call from multiple goroutines.
type Publisher struct {
	uploader Uploader
	slots    SlotStore

	mu       sync.Mutex
	inFlight map[device.Key]bool
}

// NewPublisher creates a publisher. slots may be nil, in which case only the
// upload is performed.
func NewPublisher(uploader Uploader, slots SlotStore) *Publisher {
	return &Publisher{
		uploader: uploader,
		slots:    slots,
		inFlight: make(map[device.Key]bool),
	}
}

// Publish uploads asset and, for banner devices, stores the returned URL
// under the device's setting key. A second call for the same device while
// one is running fails with ErrUploadInProgress.
func (p *Publisher) Publish(ctx context.Context, asset *image.CroppedAsset) (string, error) {
	if asset == nil || len(asset.Data) == 0 {
		return "", image.ErrNotRendered
	}
	if !p.acquire(asset.Device) {
		return "", fmt.Errorf("%w: %s", ErrUploadInProgress, asset.Device)
	}
	defer p.release(asset.Device)

	log := logrus.WithFields(logrus.Fields{
		"device": asset.Device.String(),
		"file":   asset.FileName(),
		"bytes":  len(asset.Data),
	})

	url, err := p.uploader.Upload(ctx, asset)
	if err != nil {
		log.WithError(err).Error("Upload failed")
		return "", fmt.Errorf("failed to upload %s: %w", asset.FileName(), err)
	}

	if key := asset.Device.SettingKey(); key != "" && p.slots != nil {
		if err := p.slots.Set(ctx, key, url); err != nil {
			log.WithError(err).Error("Failed to record banner URL")
			return url, fmt.Errorf("failed to record %s: %w", key, err)
		}
	}

	log.WithField("url", url).Info("Published asset")
	return url, nil
}

// Clear removes the published banner for k by storing an empty URL.
func (p *Publisher) Clear(ctx context.Context, k device.Key) error {
	key := k.SettingKey()
	if key == "" || p.slots == nil {
		return nil
	}
	if err := p.slots.Set(ctx, key, ""); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	logrus.WithField("device", k.String()).Info("Cleared banner")
	return nil
}

// Busy reports whether a publish for k is running.
func (p *Publisher) Busy(k device.Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight[k]
}

func (p *Publisher) acquire(k device.Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[k] {
		return false
	}
	p.inFlight[k] = true
	return true
}

func (p *Publisher) release(k device.Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, k)
}
