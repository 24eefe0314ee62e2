// Package assets resolves model locators to bytes and caches the results.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/logger"
)

// ErrUnsupportedLocator is returned for locators whose scheme has no source.
var ErrUnsupportedLocator = errors.New("assets: unsupported locator")

// Options configures a Fetcher.
type Options struct {
	// Roots are searched in order for relative paths.
	Roots       []string
	HTTPTimeout time.Duration
	Cache       bool
}

// Fetcher loads asset bytes from the filesystem or over HTTP(S).
type Fetcher struct {
	roots  []string
	client *http.Client
	cache  *Cache
}

// NewFetcher creates a fetcher. A nil cache is used when opts.Cache is false.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		roots:  opts.Roots,
		client: &http.Client{Timeout: opts.HTTPTimeout},
	}
	if opts.Cache {
		f.cache = NewCache()
	}
	return f
}

// Cache returns the fetcher's cache, or nil when caching is disabled.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Invalidate drops the cached bytes of each locator so the next Fetch reads
// the source again. It does nothing when caching is disabled.
func (f *Fetcher) Invalidate(locators ...string) {
	for _, l := range locators {
		f.cache.Invalidate(l)
	}
}

// Fetch returns the bytes behind locator. progress, if non-nil, is called
// as bytes arrive with the running count and the total (-1 when unknown).
// It runs on the fetching goroutine.
func (f *Fetcher) Fetch(ctx context.Context, locator string, progress func(read, total int64)) ([]byte, error) {
	if f.cache != nil {
		if data, ok := f.cache.Get(locator); ok {
			if progress != nil {
				progress(int64(len(data)), int64(len(data)))
			}
			return data, nil
		}
	}

	var (
		data []byte
		err  error
	)
	switch scheme := locatorScheme(locator); scheme {
	case "http", "https":
		data, err = f.fetchHTTP(ctx, locator, progress)
	case "file", "":
		var path string
		path, err = f.Resolve(locator)
		if err == nil {
			data, err = readFile(ctx, path, progress)
		}
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedLocator, scheme)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("asset fetched", zap.String("locator", locator), zap.Int("bytes", len(data)))
	if f.cache != nil {
		f.cache.Set(locator, data)
	}
	return data, nil
}

// Resolve maps a plain path or file:// locator to a filesystem path.
// Relative paths are looked up under each root in order; when none has the
// file, the path is returned as given.
func (f *Fetcher) Resolve(locator string) (string, error) {
	path := locator
	switch locatorScheme(locator) {
	case "":
	case "file":
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", locator, err)
		}
		path = filepath.FromSlash(u.Path)
		if u.Host != "" && u.Host != "localhost" {
			path = filepath.Join(u.Host, path)
		}
	default:
		return "", fmt.Errorf("%w: %s is not a local path", ErrUnsupportedLocator, locator)
	}

	if filepath.IsAbs(path) {
		return path, nil
	}
	for _, root := range f.roots {
		candidate := filepath.Join(root, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return path, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, locator string, progress func(read, total int64)) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", locator, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", locator, resp.Status)
	}

	data, err := io.ReadAll(&progressReader{r: resp.Body, total: resp.ContentLength, fn: progress})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	return data, nil
}

func readFile(ctx context.Context, path string, progress func(read, total int64)) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	total := int64(-1)
	if info, err := file.Stat(); err == nil {
		total = info.Size()
	}

	data, err := io.ReadAll(&progressReader{ctx: ctx, r: file, total: total, fn: progress})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// locatorScheme returns the lower-cased URL scheme, or "" for plain paths.
// Single-letter schemes are drive letters.
func locatorScheme(locator string) string {
	i := strings.Index(locator, "://")
	if i <= 1 {
		return ""
	}
	return strings.ToLower(locator[:i])
}

// progressReader reports cumulative reads and stops once ctx is done.
type progressReader struct {
	ctx   context.Context
	r     io.Reader
	read  int64
	total int64
	fn    func(read, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	if p.ctx != nil {
		if err := p.ctx.Err(); err != nil {
			return 0, err
		}
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.fn != nil {
			p.fn(p.read, p.total)
		}
	}
	return n, err
}
