// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"banner-editor/internal/device"
	"banner-editor/internal/editor"
	"banner-editor/internal/image"
	"banner-editor/internal/settings"
	"banner-editor/internal/transform"
	"banner-editor/internal/version"
	"banner-editor/ui/canvas"
	"banner-editor/ui/prefs"
)

const (
	prefKeyLastDir      = "lastDirectory"
	prefKeyLastDevice   = "lastDevice"
	prefKeyWindowWidth  = "windowWidth"
	prefKeyWindowHeight = "windowHeight"
	prefKeyShowGuides   = "showGuides"

	// Below this the background shows at the frame edges.
	fullCoverage = 0.999

	publishTimeout = 2 * time.Minute
	fetchTimeout   = 30 * time.Second
)

// Deps are the collaborators the window drives.
type Deps struct {
	Session   *editor.Session
	Publisher *editor.Publisher // nil disables publishing
	Settings  *settings.Store   // nil disables re-editing published banners
	Prefs     *prefs.Prefs
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app        fyne.App
	session    *editor.Session
	controller *editor.Controller
	publisher  *editor.Publisher
	settings   *settings.Store
	prefs      *prefs.Prefs
	httpClient *http.Client
	loop       *editLoop

	canvas       *canvas.CropCanvas
	deviceSelect *widget.RadioGroup
	zoomSlider   *widget.Slider
	zoomLabel    *widget.Label
	rotateBtn    *widget.Button
	saveBtn      *widget.Button
	statusBar    *widget.Label

	mainMenu   *fyne.MainMenu
	saveItem   *fyne.MenuItem
	guidesItem *fyne.MenuItem

	// syncing suppresses widget callbacks while the UI mirrors session state.
	syncing    atomic.Bool
	publishing bool
}

// New creates a new main window.
func New(fyneApp fyne.App, deps Deps) *MainWindow {
	win := fyneApp.NewWindow("Banner Editor")

	mw := &MainWindow{
		Window:     win,
		app:        fyneApp,
		session:    deps.Session,
		controller: editor.NewController(deps.Session),
		publisher:  deps.Publisher,
		settings:   deps.Settings,
		prefs:      deps.Prefs,
		httpClient: &http.Client{Timeout: fetchTimeout},
		loop:       newEditLoop(),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.loop.wait(mw.restorePreferences)

	win.SetCloseIntercept(func() {
		mw.loop.wait(mw.SavePreferences)
		mw.loop.stop()
		win.Close()
	})
	return mw
}

// do returns a widget callback that runs fn on the edit loop.
func (mw *MainWindow) do(fn func()) func() {
	return func() { mw.loop.post(fn) }
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewCropCanvas(mw.controller)
	mw.canvas.SetDispatcher(func(fn func()) { mw.loop.post(fn) })
	mw.canvas.OnZoomChange(func(float64) {
		mw.syncControls()
	})

	mw.statusBar = widget.NewLabel("Open an image to start")

	labels := make([]string, 0, len(device.Keys()))
	for _, k := range device.Keys() {
		labels = append(labels, k.Label())
	}
	mw.deviceSelect = widget.NewRadioGroup(labels, func(label string) {
		if mw.syncing.Load() {
			return
		}
		mw.loop.post(func() { mw.onSelectDevice(label) })
	})
	mw.deviceSelect.Horizontal = true
	mw.deviceSelect.Required = true

	mw.zoomSlider = widget.NewSlider(transform.MinZoom, transform.MaxZoom)
	mw.zoomSlider.Step = 1
	mw.zoomSlider.Value = transform.DefaultZoom
	mw.zoomSlider.OnChanged = func(v float64) {
		if mw.syncing.Load() {
			return
		}
		mw.loop.post(func() { mw.onZoom(v) })
	}
	mw.zoomLabel = widget.NewLabel(zoomText(transform.DefaultZoom))

	mw.rotateBtn = widget.NewButton("Rotate 90°", mw.do(mw.onRotate))
	resetBtn := widget.NewButton("Reset", mw.do(mw.onReset))
	mw.saveBtn = widget.NewButton("Apply & Save", mw.do(mw.onApplyAndSave))
	mw.saveBtn.Importance = widget.HighImportance
	if mw.publisher == nil {
		mw.saveBtn.Disable()
	}

	toolbar := container.NewBorder(
		nil, nil,
		container.NewHBox(widget.NewLabel("Device:"), mw.deviceSelect),
		container.NewHBox(mw.rotateBtn, resetBtn, mw.saveBtn),
	)
	zoomRow := container.NewBorder(nil, nil,
		widget.NewLabel("Zoom:"), mw.zoomLabel, mw.zoomSlider)

	content := container.NewBorder(
		container.NewVBox(toolbar, zoomRow), // top
		container.NewPadded(mw.statusBar),   // bottom
		nil,                                 // left
		nil,                                 // right
		mw.canvas,                           // center
	)
	mw.SetContent(content)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	mw.saveItem = fyne.NewMenuItem("Apply & Save", mw.do(mw.onApplyAndSave))
	mw.saveItem.Disabled = mw.publisher == nil
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.do(mw.onOpenImage)),
		fyne.NewMenuItem("Open Image URL...", mw.do(mw.onOpenURL)),
		fyne.NewMenuItem("Edit Published Banner", mw.do(mw.onEditPublished)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export to File...", mw.do(mw.onExportFile)),
		mw.saveItem,
		fyne.NewMenuItem("Remove Published Banner", mw.do(mw.onRemoveBanner)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Close Image", mw.do(mw.onCloseImage)),
	)

	mw.guidesItem = fyne.NewMenuItem("Show Guides", mw.do(mw.onToggleGuides))
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.do(func() { mw.onZoom(mw.session.State().Zoom() + 10) })),
		fyne.NewMenuItem("Zoom Out", mw.do(func() { mw.onZoom(mw.session.State().Zoom() - 10) })),
		fyne.NewMenuItem("Rotate 90°", mw.do(mw.onRotate)),
		fyne.NewMenuItem("Reset Transform", mw.do(mw.onReset)),
		fyne.NewMenuItemSeparator(),
		mw.guidesItem,
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.mainMenu = fyne.NewMainMenu(fileMenu, viewMenu, helpMenu)
	mw.SetMainMenu(mw.mainMenu)
}

// setupEventHandlers registers for session events. Session events are
// emitted from the edit loop, so the handlers run there too.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(editor.EventSourceLoaded, func(data interface{}) {
		if src, ok := data.(*image.Source); ok {
			mw.SetTitle("Banner Editor - " + src.Name)
			mw.updateStatus(fmt.Sprintf("Loaded %s (%dx%d)", src.Name, src.Width(), src.Height()))
		}
	})

	mw.session.On(editor.EventDeviceChanged, func(data interface{}) {
		if k, ok := data.(device.Key); ok {
			mw.prefs.SetString(prefKeyLastDevice, k.String())
		}
		mw.syncControls()
	})

	mw.session.OnRender(func(snap *editor.Snapshot) {
		mw.syncControls()
		if snap.Coverage < fullCoverage {
			mw.updateStatus(fmt.Sprintf("%s: background visible, image covers %.0f%% of the frame",
				snap.Device.Label(), snap.Coverage*100))
		}
	})

	mw.session.On(editor.EventClosed, func(interface{}) {
		mw.SetTitle("Banner Editor")
		mw.syncControls()
		mw.updateStatus("Open an image to start")
	})
}

// syncControls mirrors the session state into the toolbar widgets.
func (mw *MainWindow) syncControls() {
	mw.syncing.Store(true)
	defer mw.syncing.Store(false)

	st := mw.session.State()
	mw.deviceSelect.SetSelected(mw.session.Device().Label())
	mw.zoomSlider.SetValue(st.Zoom())
	mw.zoomLabel.SetText(zoomText(st.Zoom()))
}

func zoomText(percent float64) string {
	return fmt.Sprintf("%.0f%%", percent)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) showError(err error) {
	logrus.WithError(err).Warn("Operation failed")
	dialog.ShowError(err, mw.Window)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// restorePreferences applies the saved window size, device and guides.
func (mw *MainWindow) restorePreferences() {
	w := mw.prefs.FloatWithFallback(prefKeyWindowWidth, 1100)
	h := mw.prefs.FloatWithFallback(prefKeyWindowHeight, 800)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))

	if k, err := device.ParseKey(mw.prefs.String(prefKeyLastDevice)); err == nil {
		if err := mw.controller.SetDevice(k); err != nil {
			logrus.WithError(err).Warn("Failed to restore device")
		}
	}
	if mw.prefs.Bool(prefKeyShowGuides, false) {
		mw.onToggleGuides()
	}
	mw.syncControls()
}

// SavePreferences writes the window size and editor choices to disk.
func (mw *MainWindow) SavePreferences() {
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetFloat(prefKeyWindowWidth, float64(size.Width))
		mw.prefs.SetFloat(prefKeyWindowHeight, float64(size.Height))
	}
	mw.prefs.SetString(prefKeyLastDevice, mw.session.Device().String())
	if err := mw.prefs.Save(); err != nil {
		logrus.WithError(err).Warn("Failed to save preferences")
	}
}

// LoadFile decodes a local image and loads it into the session on the edit
// loop.
func (mw *MainWindow) LoadFile(path string) error {
	if !image.IsSupportedFormat(path) {
		return fmt.Errorf("%s: %w", filepath.Base(path), image.ErrUnsupportedType)
	}
	src, err := image.Open(path)
	if err != nil {
		return err
	}
	mw.loop.post(func() {
		mw.saveLastDir(path)
		mw.load(src)
	})
	return nil
}

func (mw *MainWindow) load(src *image.Source) {
	if err := mw.session.Load(src); err != nil {
		mw.showError(err)
	}
}

// Action handlers. They run on the edit loop; dialog callbacks post back
// to it.

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		path := reader.URI().Path()

		src, err := image.Decode(reader, reader.URI().Name())
		if err != nil {
			mw.loop.post(func() { mw.showError(err) })
			return
		}
		mw.loop.post(func() {
			mw.saveLastDir(path)
			mw.load(src)
		})
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenURL() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://...")
	items := []*widget.FormItem{widget.NewFormItem("URL", entry)}
	dialog.ShowForm("Open Image URL", "Open", "Cancel", items, func(ok bool) {
		url := strings.TrimSpace(entry.Text)
		if !ok || url == "" {
			return
		}
		mw.loop.post(func() { mw.fetchAndLoad(url) })
	}, mw.Window)
}

// onEditPublished loads the banner currently published for the active device.
func (mw *MainWindow) onEditPublished() {
	if mw.settings == nil {
		mw.updateStatus("No settings database configured")
		return
	}
	k := mw.session.Device()
	if k.SettingKey() == "" {
		mw.updateStatus(k.Label() + " has no published banner slot")
		return
	}
	url, err := mw.settings.BannerURL(context.Background(), k)
	if err != nil {
		mw.showError(err)
		return
	}
	if url == "" {
		mw.updateStatus("No banner published for " + k.Label())
		return
	}
	mw.fetchAndLoad(url)
}

// fetchAndLoad downloads in the background; only the load itself goes back
// through the edit loop.
func (mw *MainWindow) fetchAndLoad(url string) {
	mw.updateStatus("Downloading " + url)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		src, err := image.Fetch(ctx, mw.httpClient, url)
		mw.loop.post(func() {
			if err != nil {
				mw.updateStatus("Download failed")
				mw.showError(err)
				return
			}
			mw.load(src)
		})
	}()
}

func (mw *MainWindow) onSelectDevice(label string) {
	for _, k := range device.Keys() {
		if k.Label() == label {
			if err := mw.controller.SetDevice(k); err != nil {
				mw.showError(err)
			}
			mw.updateStatus(fmt.Sprintf("Editing %s (%s)", k.Label(), mw.session.Variant()))
			return
		}
	}
}

func (mw *MainWindow) onZoom(percent float64) {
	if err := mw.controller.SetZoom(percent); err != nil {
		if errors.Is(err, editor.ErrNoSource) {
			mw.syncControls()
			return
		}
		mw.showError(err)
	}
}

func (mw *MainWindow) onRotate() {
	if err := mw.controller.Rotate90(); err != nil && !errors.Is(err, editor.ErrNoSource) {
		mw.showError(err)
	}
	mw.updateStatus(mw.session.State().String())
}

func (mw *MainWindow) onReset() {
	if err := mw.session.Reset(); err != nil && !errors.Is(err, editor.ErrNoSource) {
		mw.showError(err)
	}
}

func (mw *MainWindow) onToggleGuides() {
	mw.guidesItem.Checked = !mw.guidesItem.Checked
	mw.canvas.SetGuidesVisible(mw.guidesItem.Checked)
	mw.prefs.SetBool(prefKeyShowGuides, mw.guidesItem.Checked)
}

func (mw *MainWindow) onCloseImage() {
	mw.session.Close()
}

// onApplyAndSave exports the current surface and publishes it in the
// background. The surface is kept on failure so the user can retry.
func (mw *MainWindow) onApplyAndSave() {
	if mw.publisher == nil {
		mw.updateStatus("Publishing is not configured")
		return
	}
	if mw.publishing {
		return
	}
	asset, err := mw.session.Export()
	if err != nil {
		mw.showError(err)
		return
	}

	mw.setPublishing(true)
	mw.updateStatus("Uploading " + asset.FileName() + "...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		url, err := mw.publisher.Publish(ctx, asset)
		mw.loop.post(func() {
			mw.setPublishing(false)
			if err != nil {
				mw.updateStatus("Upload failed")
				mw.showError(err)
				return
			}
			mw.updateStatus(fmt.Sprintf("%s saved: %s", asset.Device.Label(), url))
		})
	}()
}

// setPublishing disables every save entry point while an upload runs.
func (mw *MainWindow) setPublishing(on bool) {
	mw.publishing = on
	mw.saveItem.Disabled = on
	if on {
		mw.saveBtn.Disable()
	} else {
		mw.saveBtn.Enable()
	}
	mw.mainMenu.Refresh()
}

func (mw *MainWindow) onRemoveBanner() {
	if mw.publisher == nil {
		return
	}
	k := mw.session.Device()
	dialog.ShowConfirm("Remove Banner",
		fmt.Sprintf("Remove the published %s banner?", k.Label()),
		func(ok bool) {
			if !ok {
				return
			}
			mw.loop.post(func() {
				if err := mw.publisher.Clear(context.Background(), k); err != nil {
					mw.showError(err)
					return
				}
				mw.updateStatus(k.Label() + " banner removed")
			})
		}, mw.Window)
}

func (mw *MainWindow) onExportFile() {
	asset, err := mw.session.Export()
	if err != nil {
		mw.showError(err)
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		path := writer.URI().Path()
		_, err = writer.Write(asset.Data)
		mw.loop.post(func() {
			if err != nil {
				mw.showError(err)
				return
			}
			mw.saveLastDir(path)
			mw.updateStatus("Exported " + path)
		})
	}, mw.Window)
	fd.SetFileName(asset.FileName())
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Banner Editor",
		fmt.Sprintf("Banner Editor v%s\n\n"+
			"Crops storefront banners and product images for each device.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
