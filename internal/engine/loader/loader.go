// Package loader fetches and parses model assets off the host loop and hands
// the results back to it.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/pkg/formats"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

var (
	// ErrLoadInFlight is returned when a load is started while another runs.
	ErrLoadInFlight = errors.New("loader: a load is already in flight")
	// ErrClosed is returned by Load after Close.
	ErrClosed = errors.New("loader: closed")
)

// Fetcher returns the raw bytes behind a locator. progress may be nil.
type Fetcher interface {
	Fetch(ctx context.Context, locator string, progress func(read, total int64)) ([]byte, error)
}

// Dispatcher runs functions on the host loop. Post must be safe to call from
// any goroutine.
type Dispatcher interface {
	Post(fn func())
}

// LoadError reports a failed load.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Locator, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Progress is an informational transfer update.
type Progress struct {
	Locator  string
	Bytes    int64
	Total    int64   // -1 when unknown
	Fraction float32 // in [0, 1]; 0 when Total is unknown
}

// Callbacks receive load events on the host loop. Any of them may be nil.
type Callbacks struct {
	OnProgress func(Progress)
	OnLoaded   func(*scenegraph.Asset)
	OnError    func(*LoadError)
}

// Loader runs at most one load at a time.
type Loader struct {
	fetcher  Fetcher
	parser   formats.Parser
	dispatch Dispatcher

	alive atomic.Bool
	busy  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc

	log *zap.Logger
}

// New creates an open loader.
func New(f Fetcher, p formats.Parser, d Dispatcher) *Loader {
	l := &Loader{fetcher: f, parser: p, dispatch: d, log: logger.Named("loader")}
	l.alive.Store(true)
	return l
}

// Load starts fetching and parsing locator in the background. Results are
// posted to the dispatcher and dropped if the loader has been closed by then.
func (l *Loader) Load(ctx context.Context, locator string, cb Callbacks) error {
	if !l.alive.Load() {
		return ErrClosed
	}
	if !l.busy.CompareAndSwap(false, true) {
		return ErrLoadInFlight
	}

	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	l.log.Info("load started", zap.String("locator", locator))
	go func() {
		defer cancel()

		asset, err := l.run(ctx, locator, cb)
		l.post(func() {
			l.busy.Store(false)
			if err != nil {
				l.log.Warn("load failed", zap.String("locator", locator), zap.Error(err))
				if cb.OnError != nil {
					cb.OnError(&LoadError{Locator: locator, Err: err})
				}
				return
			}
			l.log.Info("load completed",
				zap.String("locator", locator),
				zap.Int("clips", len(asset.Clips)),
			)
			if cb.OnLoaded != nil {
				cb.OnLoaded(asset)
			}
		})
	}()
	return nil
}

func (l *Loader) run(ctx context.Context, locator string, cb Callbacks) (*scenegraph.Asset, error) {
	var progress func(read, total int64)
	if cb.OnProgress != nil {
		progress = func(read, total int64) {
			p := Progress{Locator: locator, Bytes: read, Total: total}
			if total > 0 {
				p.Fraction = float32(read) / float32(total)
			}
			l.post(func() { cb.OnProgress(p) })
		}
	}

	data, err := l.fetcher.Fetch(ctx, locator, progress)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.parser.Parse(data, locator)
}

// post delivers fn on the host loop unless the loader is closed by then.
func (l *Loader) post(fn func()) {
	l.dispatch.Post(func() {
		if !l.alive.Load() {
			return
		}
		fn()
	})
}

// InFlight reports whether a load has started and not yet been delivered.
func (l *Loader) InFlight() bool {
	return l.busy.Load()
}

// Close cancels any running fetch and suppresses every later delivery.
// Calling it again does nothing.
func (l *Loader) Close() {
	if !l.alive.Swap(false) {
		return
	}
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
	l.log.Debug("loader closed")
}
