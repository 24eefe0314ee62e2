// Package viewer mounts one model viewer on a surface: it loads the model,
// normalizes it, renders it every frame and tears everything down on Close.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/animation"
	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/frameloop"
	"github.com/Faultbox/modelview/internal/engine/loader"
	"github.com/Faultbox/modelview/internal/engine/resize"
	"github.com/Faultbox/modelview/internal/engine/scene"
	"github.com/Faultbox/modelview/internal/engine/surface"
	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/pkg/formats"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// ErrClosed is returned by Start and Load after Close.
var ErrClosed = errors.New("viewer: closed")

// Host supplies the environment a viewer runs in.
type Host struct {
	Frames     frameloop.FrameRequester
	Dispatcher loader.Dispatcher
	Renderer   scene.Renderer
	Fetcher    loader.Fetcher
	Parser     formats.Parser
	// Registry defaults to surface.Default.
	Registry *surface.Registry
}

// Callbacks report viewer events on the host loop. Any of them may be nil.
type Callbacks struct {
	OnProgress func(loader.Progress)
	OnLoaded   func(State)
	// OnError receives *loader.LoadError for failed loads and the wrapped
	// renderer error for failed frames.
	OnError func(error)
}

// State is a snapshot of a viewer's runtime state.
type State struct {
	Model         *scenegraph.Node
	Clips         []*scenegraph.Clip
	Normalization scenegraph.Normalization
	Width, Height int
	Scheduler     frameloop.State
	FramePending  bool
	Frames        uint64
	Closed        bool
}

var viewerSeq atomic.Uint64

// Viewer is one mounted model viewer. Apart from construction, every method
// must be called on the host loop.
type Viewer struct {
	id       string
	cfg      Config
	cb       Callbacks
	registry *surface.Registry

	alive   atomic.Bool
	started bool

	owner   *scene.Owner
	driver  *animation.Driver
	sched   *frameloop.Scheduler
	reactor *resize.Reactor
	loader  *loader.Loader

	model         *scenegraph.Node
	clips         []*scenegraph.Clip
	normalization scenegraph.Normalization
	width, height int

	log *zap.Logger
}

// New validates cfg and host, claims the surface and builds an idle viewer.
// It returns a *PreconditionError when the configuration cannot be used or
// the surface already belongs to another viewer.
func New(cfg Config, host Host, cb Callbacks) (*Viewer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := host.validate(); err != nil {
		return nil, err
	}

	registry := host.Registry
	if registry == nil {
		registry = surface.Default
	}

	id := fmt.Sprintf("viewer-%d", viewerSeq.Add(1))
	if err := registry.Claim(cfg.Surface, id); err != nil {
		return nil, &PreconditionError{Field: "Surface", Reason: err.Error(), Err: err}
	}

	cam := camera.NewPerspectiveCamera(cfg.FOVDegrees, 1, cfg.Near, cfg.Far)
	cam.Position = cfg.CameraPosition
	owner, err := scene.NewOwner(cfg.Surface, host.Renderer, scene.Options{Camera: cam, Lights: *cfg.Lights})
	if err != nil {
		registry.Release(cfg.Surface)
		return nil, fmt.Errorf("creating scene: %w", err)
	}

	v := &Viewer{
		id:       id,
		cfg:      cfg,
		cb:       cb,
		registry: registry,
		owner:    owner,
		log:      logger.Named("viewer").With(zap.String("id", id)),
	}
	v.alive.Store(true)

	v.driver = animation.NewDriver(owner.Pivot(), animation.Options{
		AutoRotate: cfg.AutoRotate,
		Timestep:   cfg.Timestep,
		RotateStep: cfg.RotateStep,
	})
	v.sched = frameloop.New(host.Frames, v.frame)
	v.reactor = resize.New(cfg.Surface, resize.TargetFunc(v.resized))
	v.loader = loader.New(host.Fetcher, host.Parser, host.Dispatcher)

	// The initial size is the configured one; later sizes come from the surface.
	v.resized(cfg.Width, cfg.Height)

	v.log.Info("viewer created",
		zap.String("asset", cfg.AssetLocator),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("auto_rotate", cfg.AutoRotate),
	)
	return v, nil
}

// ID returns the viewer's name in logs and in the surface registry.
func (v *Viewer) ID() string {
	return v.id
}

// Config returns the effective configuration.
func (v *Viewer) Config() Config {
	return v.cfg
}

// Start subscribes to resizes, starts the frame loop and loads the
// configured asset. Calling it again does nothing.
func (v *Viewer) Start(ctx context.Context) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	if v.started {
		return nil
	}
	v.started = true

	v.reactor.Attach()
	v.sched.Start()
	return v.Load(ctx, v.cfg.AssetLocator)
}

// Load replaces the displayed model with the asset at locator once it has
// loaded. Only one load may be in flight.
func (v *Viewer) Load(ctx context.Context, locator string) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	return v.loader.Load(ctx, locator, loader.Callbacks{
		OnProgress: v.cb.OnProgress,
		OnLoaded:   func(a *scenegraph.Asset) { v.loaded(locator, a) },
		OnError:    v.failed,
	})
}

func (v *Viewer) loaded(locator string, asset *scenegraph.Asset) {
	if !v.alive.Load() {
		return
	}

	norm, err := scenegraph.Normalize(asset.Root, v.cfg.CanonicalSize)
	if err != nil {
		v.failed(&loader.LoadError{Locator: locator, Err: err})
		return
	}

	e := v.cfg.Lights.Emissive
	scenegraph.ApplyEmissive(asset.Root, e.Color, e.Intensity)

	if err := v.owner.AttachModel(asset.Root); err != nil {
		// The previous model is gone either way.
		v.model, v.clips = nil, nil
		v.driver.SetClips(nil)
		v.failed(&loader.LoadError{Locator: locator, Err: err})
		return
	}
	v.driver.ResetRotation()
	v.driver.SetClips(asset.Clips)

	v.model = asset.Root
	v.clips = asset.Clips
	v.normalization = norm

	v.log.Info("model mounted",
		zap.String("locator", locator),
		zap.Float32("scale", norm.Scale),
		zap.Int("clips", len(asset.Clips)),
	)
	if v.cb.OnLoaded != nil {
		v.cb.OnLoaded(v.State())
	}
}

func (v *Viewer) failed(err *loader.LoadError) {
	v.report(err)
}

func (v *Viewer) report(err error) {
	if !v.alive.Load() {
		return
	}
	if v.cb.OnError != nil {
		v.cb.OnError(err)
	}
}

func (v *Viewer) resized(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	v.width, v.height = w, h
	v.owner.SetCameraAspect(w, h)
}

// frame is one scheduler tick.
func (v *Viewer) frame() {
	if !v.alive.Load() {
		return
	}
	v.driver.Tick()
	if err := v.owner.RenderFrame(); err != nil {
		v.log.Debug("frame failed", zap.Error(err))
		v.report(err)
	}
}

// State returns a snapshot of the runtime state.
func (v *Viewer) State() State {
	return State{
		Model:         v.model,
		Clips:         append([]*scenegraph.Clip(nil), v.clips...),
		Normalization: v.normalization,
		Width:         v.width,
		Height:        v.height,
		Scheduler:     v.sched.State(),
		FramePending:  v.sched.Pending(),
		Frames:        v.sched.Frames(),
		Closed:        !v.alive.Load(),
	}
}

// Close stops the viewer and releases everything it holds: pending loads are
// abandoned, the frame loop stops, the resize subscription ends, the scene is
// disposed and the surface is released. Calling it again does nothing.
func (v *Viewer) Close() {
	if !v.alive.Swap(false) {
		return
	}

	v.loader.Close()
	v.sched.Stop()
	v.reactor.Detach()
	v.owner.Dispose()
	v.registry.Release(v.cfg.Surface)

	v.model, v.clips = nil, nil
	v.driver.SetClips(nil)
	v.log.Info("viewer closed", zap.Uint64("frames", v.sched.Frames()))
}
