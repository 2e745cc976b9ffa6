// Package main provides the entry point for the Banner Editor application.
package main

import (
	"context"
	"flag"
	"fmt"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"banner-editor/internal/app"
	"banner-editor/internal/config"
	"banner-editor/internal/editor"
	"banner-editor/internal/settings"
	"banner-editor/internal/upload"
	"banner-editor/internal/version"
	"banner-editor/ui/mainwindow"
	"banner-editor/ui/prefs"
)

const appID = "com.docessaofidelis.bannereditor"

func main() {
	configPath := flag.String("config", "", "Path to the TOML config file.")
	showVersion := flag.Bool("version", false, "Print the version and exit.")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logrus.SetLevel(cfg.Level())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.WithField("version", version.Version).Info("Starting Banner Editor")

	session, err := newSession(cfg)
	if err != nil {
		logrus.Fatalf("Failed to set up editor: %v", err)
	}

	store, err := settings.Open(cfg.Settings.Database)
	if err != nil {
		logrus.WithError(err).Warn("Settings database unavailable, publishing disabled")
	}

	var publisher *editor.Publisher
	if store != nil {
		defer store.Close()
		uploader, err := upload.New(context.Background(), cfg.UploadOptions())
		if err != nil {
			logrus.WithError(err).Warn("Storage unavailable, publishing disabled")
		} else {
			publisher = editor.NewPublisher(uploader, store)
		}
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.EditorTheme{})

	win := mainwindow.New(fyneApp, mainwindow.Deps{
		Session:   session,
		Publisher: publisher,
		Settings:  store,
		Prefs:     prefs.Load(),
	})

	if flag.NArg() > 0 {
		path := flag.Arg(0)
		if err := win.LoadFile(path); err != nil {
			logrus.WithError(err).WithField("path", path).Error("Failed to load image")
		}
	}

	win.ShowAndRun()
}

func newSession(cfg config.Config) (*editor.Session, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	renderer, err := cfg.Renderer()
	if err != nil {
		return nil, err
	}
	exporter, err := cfg.Exporter()
	if err != nil {
		return nil, err
	}
	return editor.NewSession(policy, renderer, exporter), nil
}
