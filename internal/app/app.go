// Package app wires the window, the OpenGL renderer and the asset fetcher
// into a single viewer and runs it until the window closes.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/assets"
	"github.com/Faultbox/modelview/internal/config"
	"github.com/Faultbox/modelview/internal/engine/input"
	"github.com/Faultbox/modelview/internal/engine/lighting"
	"github.com/Faultbox/modelview/internal/engine/loader"
	"github.com/Faultbox/modelview/internal/engine/renderer"
	"github.com/Faultbox/modelview/internal/engine/snapshot"
	"github.com/Faultbox/modelview/internal/engine/surface"
	"github.com/Faultbox/modelview/internal/engine/window"
	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/internal/viewer"
	"github.com/Faultbox/modelview/pkg/formats"
	"github.com/Faultbox/modelview/pkg/math"
)

// App owns the desktop host and the viewer mounted on it.
type App struct {
	cfg *config.Config
	ctx context.Context

	window    *window.Window
	input     *input.Input
	fetcher   *assets.Fetcher
	renderer  *renderer.Renderer
	viewer    *viewer.Viewer
	watcher   *assets.Watcher
	snapshots *snapshot.Writer

	log *zap.Logger
}

// New opens the window and mounts a viewer for cfg.Viewer.Asset.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		cfg:       cfg,
		ctx:       ctx,
		input:     input.New(),
		snapshots: snapshot.NewWriter(cfg.Viewer.SnapshotDir, "modelview"),
		log:       logger.Named("app"),
	}

	var err error
	a.window, err = window.New(window.Config{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		VSync:  cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	a.fetcher = assets.NewFetcher(assets.Options{
		Roots:       cfg.Assets.Roots,
		HTTPTimeout: cfg.Assets.HTTPTimeout,
		Cache:       cfg.Assets.Cache,
	})

	if err := a.mount(); err != nil {
		a.window.Close()
		return nil, err
	}

	if cfg.Watch {
		a.startWatch()
	}
	return a, nil
}

// mount creates a renderer and a viewer on the window. Closing a viewer
// destroys its renderer, so every mount gets a fresh one.
func (a *App) mount() error {
	r, err := renderer.New(rendererConfig(a.cfg))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	w, h := a.window.Size()
	v, err := viewer.New(viewerConfig(a.cfg, a.window, w, h), viewer.Host{
		Frames:     a.window,
		Dispatcher: a.window,
		Renderer:   r,
		Fetcher:    a.fetcher,
		Parser:     formats.GLTF{Resolve: a.fetcher.Resolve},
	}, a.callbacks())
	if err != nil {
		r.Destroy()
		return fmt.Errorf("failed to create viewer: %w", err)
	}
	if err := v.Start(a.ctx); err != nil {
		v.Close()
		return fmt.Errorf("failed to start viewer: %w", err)
	}

	a.renderer, a.viewer = r, v
	return nil
}

// remount replaces the viewer with a new one built from the same config.
func (a *App) remount() {
	a.log.Info("remounting viewer", zap.String("asset", a.cfg.Viewer.Asset))
	if a.viewer != nil {
		a.viewer.Close()
		a.viewer, a.renderer = nil, nil
	}
	if err := a.mount(); err != nil {
		a.log.Error("remount failed", zap.Error(err))
	}
}

func (a *App) startWatch() {
	path, err := a.fetcher.Resolve(a.cfg.Viewer.Asset)
	if err != nil {
		a.log.Warn("watch mode needs a local asset", zap.String("asset", a.cfg.Viewer.Asset), zap.Error(err))
		return
	}

	a.watcher, err = assets.NewWatcher(path, assets.DefaultDebounce, func() {
		a.fetcher.Invalidate(path, a.cfg.Viewer.Asset)
		a.window.Post(a.remount)
	})
	if err != nil {
		a.log.Warn("failed to watch asset", zap.String("path", path), zap.Error(err))
		return
	}
	a.log.Info("watching asset", zap.String("path", path))
}

func (a *App) callbacks() viewer.Callbacks {
	return viewer.Callbacks{
		OnProgress: func(p loader.Progress) {
			a.log.Debug("loading",
				zap.String("locator", p.Locator),
				zap.Int64("bytes", p.Bytes),
				zap.Int64("total", p.Total),
				zap.Float32("fraction", p.Fraction),
			)
		},
		OnLoaded: func(s viewer.State) {
			a.log.Info("model loaded",
				zap.Int("clips", len(s.Clips)),
				zap.Float32("scale", s.Normalization.Scale),
			)
			a.window.SetTitle(windowTitle(a.cfg.Window.Title, a.cfg.Viewer.Asset))
		},
		OnError: func(err error) {
			a.log.Error("viewer error", zap.Error(err))
		},
	}
}

// Run drives the host loop until the window closes or ctx is done.
func (a *App) Run() error {
	a.log.Info("starting host loop")
	return a.window.Run(a.ctx, a.input, a.onKey)
}

func (a *App) onKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_F12:
		a.snapshot()
	case sdl.SCANCODE_R:
		a.reload()
	}
}

// snapshot saves the next drawn frame.
func (a *App) snapshot() {
	if a.renderer == nil {
		return
	}
	a.renderer.CaptureNext(func(pixels []byte, width, height int) {
		path, err := a.snapshots.WritePixels(pixels, width, height)
		if err != nil {
			a.log.Error("snapshot failed", zap.Error(err))
			return
		}
		a.log.Info("snapshot saved", zap.String("path", path))
	})
}

// reload fetches the asset again, bypassing the cache.
func (a *App) reload() {
	if a.viewer == nil {
		return
	}
	locator := a.cfg.Viewer.Asset
	a.fetcher.Invalidate(locator)
	if err := a.viewer.Load(a.ctx, locator); err != nil {
		a.log.Warn("reload rejected", zap.Error(err))
	}
}

// Close tears down the viewer, the watcher and the window.
func (a *App) Close() {
	a.log.Info("closing app")
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.viewer != nil {
		a.viewer.Close()
	}
	a.window.Close()
}

// viewerConfig maps the file/flag configuration onto a viewer configuration.
func viewerConfig(cfg *config.Config, s surface.Surface, width, height int) viewer.Config {
	rig := lighting.Rig{
		Ambient:  lightSpec(cfg.Lighting.Ambient),
		Key:      lightSpec(cfg.Lighting.Key),
		Fill:     lightSpec(cfg.Lighting.Fill),
		Emissive: lightSpec(cfg.Lighting.Emissive),
	}
	p := cfg.Viewer.CameraPosition
	return viewer.Config{
		AssetLocator:   cfg.Viewer.Asset,
		Surface:        s,
		Width:          width,
		Height:         height,
		AutoRotate:     cfg.Viewer.AutoRotate,
		CameraPosition: math.Vec3{X: p[0], Y: p[1], Z: p[2]},
		CanonicalSize:  cfg.Viewer.CanonicalSize,
		Timestep:       cfg.Viewer.Timestep,
		RotateStep:     cfg.Viewer.RotateStep,
		FOVDegrees:     cfg.Camera.FOVDegrees,
		Near:           cfg.Camera.Near,
		Far:            cfg.Camera.Far,
		Lights:         &rig,
	}
}

func lightSpec(c config.LightConfig) lighting.Spec {
	return lighting.Spec{Color: c.Color, Intensity: c.Intensity, Direction: c.Direction, CastShadow: c.CastShadow}
}

func rendererConfig(cfg *config.Config) renderer.Config {
	rc := renderer.DefaultConfig()
	rc.Shadows = cfg.Lighting.Shadows
	rc.ShadowResolution = cfg.Lighting.ShadowResolution
	return rc
}

// windowTitle appends the asset's base name to title.
func windowTitle(title, locator string) string {
	name := locator
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return title
	}
	return title + " - " + name
}
