// Package window handles the SDL2 window and OpenGL context, and runs the
// host loop viewers are driven from.
package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/frameloop"
	"github.com/Faultbox/modelview/internal/engine/surface"
	"github.com/Faultbox/modelview/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title  string
	Width  int
	Height int
	VSync  bool
}

// Window wraps an SDL2 window and OpenGL context. It is the mount surface,
// the frame requester and the dispatcher of the viewers it hosts.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext

	drawable  surface.Drawable
	listeners map[int]func()
	nextSub   int

	nextFrame frameloop.FrameID
	frames    []pendingFrame

	mu    sync.Mutex
	tasks []func()
}

type pendingFrame struct {
	id frameloop.FrameID
	fn func()
}

// New creates a new window with OpenGL context.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config:    cfg,
		listeners: make(map[int]func()),
	}

	logger.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	// OpenGL 4.1 Core Profile (max supported on macOS)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	sdl.GLSetAttribute(sdl.GL_ALPHA_SIZE, 8)
	sdl.GLSetAttribute(sdl.GL_FRAMEBUFFER_SRGB_CAPABLE, 1)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	// Swap interval 1 ties each presented frame to the display refresh.
	if cfg.VSync {
		if err := sdl.GLSetSwapInterval(1); err != nil {
			logger.Warn("failed to enable VSync", zap.Error(err))
		}
	} else {
		sdl.GLSetSwapInterval(0)
	}

	pw, ph := w.Size()
	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("pixel_width", pw),
		zap.Int("pixel_height", ph),
		zap.Bool("vsync", cfg.VSync),
	)

	return w, nil
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	logger.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}

	sdl.Quit()
}

// Size returns the drawable size in pixels, which differs from the window
// size on high-DPI displays.
func (w *Window) Size() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// AttachDrawable makes d the window's content. Only one drawable may be
// attached at a time.
func (w *Window) AttachDrawable(d surface.Drawable) error {
	if w.drawable != nil && w.drawable != d {
		return fmt.Errorf("window already presents %s", w.drawable.Name())
	}
	w.drawable = d
	return nil
}

// DetachDrawable removes d if it is attached.
func (w *Window) DetachDrawable(d surface.Drawable) {
	if w.drawable == d {
		w.drawable = nil
	}
}

// OnResize registers fn to run on the host loop after each size change.
func (w *Window) OnResize(fn func()) func() {
	id := w.nextSub
	w.nextSub++
	w.listeners[id] = fn
	return func() {
		delete(w.listeners, id)
	}
}

func (w *Window) notifyResize() {
	for id := 0; id < w.nextSub; id++ {
		if fn, ok := w.listeners[id]; ok {
			fn()
		}
	}
}

// RequestFrame runs fn when the loop next presents a frame.
func (w *Window) RequestFrame(fn func()) frameloop.FrameID {
	w.nextFrame++
	w.frames = append(w.frames, pendingFrame{id: w.nextFrame, fn: fn})
	return w.nextFrame
}

// CancelFrame drops a pending frame request.
func (w *Window) CancelFrame(id frameloop.FrameID) {
	for i, f := range w.frames {
		if f.id == id {
			w.frames = append(w.frames[:i], w.frames[i+1:]...)
			return
		}
	}
}

// Post queues fn to run on the host loop. Safe from any goroutine.
func (w *Window) Post(fn func()) {
	w.mu.Lock()
	w.tasks = append(w.tasks, fn)
	w.mu.Unlock()
}

func (w *Window) runPosted() {
	w.mu.Lock()
	tasks := w.tasks
	w.tasks = nil
	w.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
}

// runFrames runs the frame callbacks requested so far and presents the
// result. It reports whether anything was drawn.
func (w *Window) runFrames() bool {
	if len(w.frames) == 0 {
		return false
	}
	frames := w.frames
	w.frames = nil

	for _, f := range frames {
		f.fn()
	}
	w.sdlWindow.GLSwap()
	return true
}
