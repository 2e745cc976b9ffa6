package mainwindow

import (
	"bytes"
	"context"
	goimage "image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banner-editor/internal/device"
	"banner-editor/internal/editor"
	"banner-editor/internal/image"
	"banner-editor/ui/prefs"
)

type blockingUploader struct {
	release chan struct{}
	calls   int32
}

func (u *blockingUploader) Upload(ctx context.Context, asset *image.CroppedAsset) (string, error) {
	atomic.AddInt32(&u.calls, 1)
	select {
	case <-u.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "https://cdn.example.com/" + asset.FileName(), nil
}

func newTestWindow(t *testing.T, pub *editor.Publisher) *MainWindow {
	t.Helper()
	a := test.NewApp()
	policy, err := device.NewPolicy([]device.Override{{Key: device.Desktop, OutputWidth: 32}})
	require.NoError(t, err)
	session := editor.NewSession(policy, nil, image.NewExporter(image.FormatPNG, 0))

	mw := New(a, Deps{
		Session:   session,
		Publisher: pub,
		Prefs:     prefs.LoadFrom(filepath.Join(t.TempDir(), "preferences.json")),
	})
	t.Cleanup(mw.loop.stop)
	return mw
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, 64, 36))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xff, 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchAndLoadGoesThroughEditLoop(t *testing.T) {
	mw := newTestWindow(t, nil)
	data := redPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	// Hold the loop so the finished download has to queue behind it.
	hold := make(chan struct{})
	mw.loop.post(func() {
		mw.fetchAndLoad(srv.URL + "/banner.png")
		<-hold
	})

	assert.Never(t, func() bool { return mw.session.Source() != nil }, 300*time.Millisecond, 10*time.Millisecond)
	close(hold)

	require.Eventually(t, func() bool { return mw.session.Source() != nil }, 5*time.Second, 10*time.Millisecond)

	var title, status string
	mw.loop.wait(func() {
		title = mw.Title()
		status = mw.statusBar.Text
	})
	assert.Equal(t, "Banner Editor - "+srv.URL+"/banner.png", title)
	assert.Contains(t, status, "(64x36)")
}

func TestFetchFailureReportsStatus(t *testing.T) {
	mw := newTestWindow(t, nil)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	mw.loop.post(func() { mw.fetchAndLoad(srv.URL + "/missing.png") })

	require.Eventually(t, func() bool {
		var status string
		mw.loop.wait(func() { status = mw.statusBar.Text })
		return status == "Download failed"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Nil(t, mw.session.Source())
}

func TestApplyAndSaveDisablesEverySaveEntry(t *testing.T) {
	up := &blockingUploader{release: make(chan struct{})}
	mw := newTestWindow(t, editor.NewPublisher(up, nil))

	src, err := image.Decode(bytes.NewReader(redPNG(t)), "red.png")
	require.NoError(t, err)
	var loadErr error
	mw.loop.wait(func() { loadErr = mw.session.Load(src) })
	require.NoError(t, loadErr)

	var itemDisabled, btnDisabled bool
	mw.loop.wait(func() {
		mw.onApplyAndSave()
		itemDisabled = mw.saveItem.Disabled
		btnDisabled = mw.saveBtn.Disabled()
	})
	assert.True(t, itemDisabled)
	assert.True(t, btnDisabled)

	// A second request from the menu while uploading is ignored.
	mw.saveItem.Action()
	mw.loop.wait(func() {})
	require.Eventually(t, func() bool { return atomic.LoadInt32(&up.calls) == 1 }, 5*time.Second, 10*time.Millisecond)

	close(up.release)
	require.Eventually(t, func() bool {
		mw.loop.wait(func() { itemDisabled = mw.saveItem.Disabled })
		return !itemDisabled
	}, 5*time.Second, 10*time.Millisecond)

	var status string
	mw.loop.wait(func() {
		btnDisabled = mw.saveBtn.Disabled()
		status = mw.statusBar.Text
	})
	assert.False(t, btnDisabled)
	assert.Equal(t, "Desktop (16:9) saved: https://cdn.example.com/banner_desktop.png", status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&up.calls))
}

func TestSaveDisabledWithoutPublisher(t *testing.T) {
	mw := newTestWindow(t, nil)
	assert.True(t, mw.saveItem.Disabled)
	assert.True(t, mw.saveBtn.Disabled())
}

func TestLoadFileRejectsUnsupportedExtension(t *testing.T) {
	mw := newTestWindow(t, nil)
	err := mw.LoadFile(filepath.Join(t.TempDir(), "banner.svg"))
	assert.ErrorIs(t, err, image.ErrUnsupportedType)
}
