package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banner-editor/internal/device"
	"banner-editor/internal/image"
)

type fakeUploader struct {
	url   string
	err   error
	block chan struct{}

	mu    sync.Mutex
	calls []string
}

func (f *fakeUploader) Upload(ctx context.Context, asset *image.CroppedAsset) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, asset.FileName())
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type memSlots struct {
	values map[string]string
	err    error
}

func (m *memSlots) Set(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func testAsset(k device.Key) *image.CroppedAsset {
	return &image.CroppedAsset{Data: []byte{0xff, 0xd8}, Device: k, Format: image.FormatJPEG, Width: 2, Height: 2}
}

func TestPublishRecordsURL(t *testing.T) {
	up := &fakeUploader{url: "https://cdn.example.com/banner_mobile.jpg"}
	slots := &memSlots{values: map[string]string{}}
	p := NewPublisher(up, slots)

	url, err := p.Publish(context.Background(), testAsset(device.Mobile))
	require.NoError(t, err)
	assert.Equal(t, up.url, url)
	assert.Equal(t, up.url, slots.values["homepage_banner_url_mobile"])
	assert.Equal(t, []string{"banner_mobile.jpg"}, up.calls)
	assert.False(t, p.Busy(device.Mobile))
}

func TestPublishProductSkipsSettings(t *testing.T) {
	up := &fakeUploader{url: "https://cdn.example.com/product.jpg"}
	slots := &memSlots{values: map[string]string{}}
	p := NewPublisher(up, slots)

	url, err := p.Publish(context.Background(), testAsset(device.Product))
	require.NoError(t, err)
	assert.Equal(t, up.url, url)
	assert.Empty(t, slots.values)
}

func TestPublishErrors(t *testing.T) {
	p := NewPublisher(&fakeUploader{}, nil)
	_, err := p.Publish(context.Background(), nil)
	assert.ErrorIs(t, err, image.ErrNotRendered)

	boom := errors.New("bucket unavailable")
	p = NewPublisher(&fakeUploader{err: boom}, nil)
	_, err = p.Publish(context.Background(), testAsset(device.Desktop))
	assert.ErrorIs(t, err, boom)
	assert.False(t, p.Busy(device.Desktop))

	slotErr := errors.New("database locked")
	p = NewPublisher(&fakeUploader{url: "u"}, &memSlots{err: slotErr})
	url, err := p.Publish(context.Background(), testAsset(device.Desktop))
	assert.ErrorIs(t, err, slotErr)
	assert.Equal(t, "u", url)
}

func TestPublishInFlightGuard(t *testing.T) {
	up := &fakeUploader{url: "u", block: make(chan struct{})}
	p := NewPublisher(up, nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.Publish(context.Background(), testAsset(device.Tablet))
		done <- err
	}()
	require.Eventually(t, func() bool { return p.Busy(device.Tablet) }, time.Second, time.Millisecond)

	_, err := p.Publish(context.Background(), testAsset(device.Tablet))
	assert.ErrorIs(t, err, ErrUploadInProgress)

	// Other devices are not blocked.
	other := NewPublisher(&fakeUploader{url: "d"}, nil)
	_, err = other.Publish(context.Background(), testAsset(device.Desktop))
	assert.NoError(t, err)

	close(up.block)
	assert.NoError(t, <-done)
	assert.False(t, p.Busy(device.Tablet))
}

func TestPublishFailureKeepsSurface(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Load(quadrantSource(t, 40, 30)))
	surf := s.Surface()

	p := NewPublisher(&fakeUploader{err: errors.New("offline")}, nil)
	asset, err := s.Export()
	require.NoError(t, err)
	_, err = p.Publish(context.Background(), asset)
	require.Error(t, err)

	assert.Same(t, surf, s.Surface())
	retry, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, asset.Data, retry.Data)
}

func TestClear(t *testing.T) {
	slots := &memSlots{values: map[string]string{"homepage_banner_url_desktop": "old"}}
	p := NewPublisher(&fakeUploader{}, slots)
	require.NoError(t, p.Clear(context.Background(), device.Desktop))
	assert.Equal(t, "", slots.values["homepage_banner_url_desktop"])
	assert.NoError(t, p.Clear(context.Background(), device.Product))
}
