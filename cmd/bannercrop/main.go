// Command bannercrop applies a crop transform to an image without the UI and
// writes or publishes the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"banner-editor/internal/config"
	"banner-editor/internal/device"
	"banner-editor/internal/editor"
	"banner-editor/internal/image"
	"banner-editor/internal/settings"
	"banner-editor/internal/transform"
	"banner-editor/internal/upload"
	"banner-editor/internal/version"
	"banner-editor/pkg/geometry"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "bannercrop: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	config    string
	in        string
	device    string
	zoom      float64
	rotate    int
	panX      float64
	panY      float64
	viewW     float64
	viewH     float64
	out       string
	thumbnail string
	publish   bool
	list      bool
	version   bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("bannercrop", flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "Path to the TOML config file")
	fs.StringVar(&o.in, "in", "", "Source image path or http(s) URL")
	fs.StringVar(&o.device, "device", "desktop", "Device target (desktop, tablet, mobile, product)")
	fs.Float64Var(&o.zoom, "zoom", transform.DefaultZoom, "Zoom percent (10-300)")
	fs.IntVar(&o.rotate, "rotate", 0, "Number of clockwise quarter turns")
	fs.Float64Var(&o.panX, "pan-x", 0, "Horizontal pan in view pixels")
	fs.Float64Var(&o.panY, "pan-y", 0, "Vertical pan in view pixels")
	fs.Float64Var(&o.viewW, "viewport-w", 0, "View width the pan was measured in (default: output width)")
	fs.Float64Var(&o.viewH, "viewport-h", 0, "View height the pan was measured in (default: output height)")
	fs.StringVar(&o.out, "out", "", "Output file (default: the device file name)")
	fs.StringVar(&o.thumbnail, "thumbnail", "", "Also write a 320px preview to this path")
	fs.BoolVar(&o.publish, "publish", false, "Upload the result and record it in the settings database")
	fs.BoolVar(&o.list, "list", false, "Print the published banner URL of each device and exit")
	fs.BoolVar(&o.version, "version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.version || o.list {
		return o, nil
	}
	if o.in == "" {
		fs.Usage()
		return o, fmt.Errorf("-in is required")
	}
	if o.rotate < 0 {
		return o, fmt.Errorf("-rotate must not be negative")
	}
	if (o.viewW == 0) != (o.viewH == 0) {
		return o, fmt.Errorf("-viewport-w and -viewport-h must be given together")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	config.LoadDotEnv()
	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	logrus.SetLevel(cfg.Level())

	if o.list {
		return listBanners(ctx, cfg, stdout)
	}

	key, err := device.ParseKey(o.device)
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	renderer, err := cfg.Renderer()
	if err != nil {
		return err
	}
	exporter, err := cfg.Exporter()
	if err != nil {
		return err
	}

	src, err := loadSource(ctx, o.in)
	if err != nil {
		return err
	}

	session := editor.NewSession(policy, renderer, exporter)
	if err := session.SetDevice(key); err != nil {
		return err
	}
	if o.viewW > 0 {
		if err := session.SetViewport(geometry.NewSize(o.viewW, o.viewH)); err != nil {
			return err
		}
	}
	if err := session.Load(src); err != nil {
		return err
	}
	if err := session.SetZoom(o.zoom); err != nil {
		return err
	}
	for i := 0; i < o.rotate%4; i++ {
		if err := session.Rotate90(); err != nil {
			return err
		}
	}
	if err := session.SetPan(r2.Vec{X: o.panX, Y: o.panY}); err != nil {
		return err
	}

	asset, err := session.Export()
	if err != nil {
		return err
	}
	logrus.WithField("state", session.State().String()).Debug("Applied transform")

	if o.thumbnail != "" {
		thumb := image.Thumbnail(session.Surface(), 320, 320)
		if err := imaging.Save(thumb, o.thumbnail); err != nil {
			return fmt.Errorf("failed to write thumbnail: %w", err)
		}
	}

	if o.publish {
		url, err := publish(ctx, cfg, asset)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, url)
		return nil
	}

	out := o.out
	if out == "" {
		out = asset.FileName()
	}
	if err := os.WriteFile(out, asset.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "%s %dx%d %s\n", asset.Device, asset.Width, asset.Height, filepath.Clean(out))
	return nil
}

func loadSource(ctx context.Context, in string) (*image.Source, error) {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return image.Fetch(ctx, http.DefaultClient, in)
	}
	return image.Open(in)
}

func listBanners(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	store, err := settings.Open(cfg.Settings.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	banners, err := store.Banners(ctx)
	if err != nil {
		return err
	}
	for _, k := range device.BannerKeys() {
		url := "-"
		if setting, ok := banners[k]; ok && setting.Value != "" {
			url = setting.CacheBustedURL()
		}
		fmt.Fprintf(stdout, "%s %s\n", k, url)
	}
	return nil
}

func publish(ctx context.Context, cfg config.Config, asset *image.CroppedAsset) (string, error) {
	uploader, err := upload.New(ctx, cfg.UploadOptions())
	if err != nil {
		return "", err
	}
	store, err := settings.Open(cfg.Settings.Database)
	if err != nil {
		return "", err
	}
	defer store.Close()

	return editor.NewPublisher(uploader, store).Publish(ctx, asset)
}
