// Package main is the entry point for the IBL viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/app"
	"github.com/Faultbox/iblviewer/internal/app/ibl"
	"github.com/Faultbox/iblviewer/internal/config"
	"github.com/Faultbox/iblviewer/internal/engine/debug"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/gpu/glgpu"
	"github.com/Faultbox/iblviewer/internal/engine/input"
	"github.com/Faultbox/iblviewer/internal/engine/ui2d"
	"github.com/Faultbox/iblviewer/internal/engine/window"
	"github.com/Faultbox/iblviewer/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== IBL Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Fatal("viewer error", zap.Error(err))
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	win, err := window.New(window.Config{
		Title:      "IBL Viewer",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
	}, logger.Named("window"))
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer win.Close()

	width, height := win.GetSize()
	surface, err := gpu.InitializeSurface(glgpu.NewAdapter(win, logger.Named("gl")), gpu.SurfaceConfig{
		Width:       width,
		Height:      height,
		VSync:       cfg.Graphics.VSync,
		SampleCount: cfg.Graphics.MSAASamples,
		Logger:      logger.Named("surface"),
	})
	if err != nil {
		return fmt.Errorf("initialize surface: %w", err)
	}
	defer surface.Close()

	ui, err := ui2d.NewContext(width, height)
	if err != nil {
		return fmt.Errorf("create gui: %w", err)
	}
	defer ui.Close()

	demo := ibl.New(surface, ibl.Config{
		Scene:      cfg.Scene,
		ReserveGUI: cfg.Graphics.ReserveGUIWidth,
		Logger:     logger.Named("ibl"),
	})

	host, err := app.NewHost(app.HostConfig{
		Surface:     surface,
		UI:          ui,
		Events:      input.New(),
		Screenshots: debug.NewScreenshotCapture(cfg.Debug.ScreenshotDir, "iblviewer"),
		LogFPS:      cfg.Debug.ShowFPS,
		Logger:      logger.Named("host"),
	}, demo)
	if err != nil {
		return err
	}
	return host.Run()
}
