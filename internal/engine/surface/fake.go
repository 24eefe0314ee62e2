package surface

import "sync"

// Fake is an in-memory Surface for tests and headless hosts.
type Fake struct {
	mu        sync.Mutex
	w, h      int
	drawables []Drawable
	listeners map[int]func()
	nextID    int

	// AttachErr, when set, is returned by AttachDrawable.
	AttachErr error
}

// NewFake creates a fake surface of the given size.
func NewFake(w, h int) *Fake {
	return &Fake{w: w, h: h, listeners: make(map[int]func())}
}

// Size returns the current size.
func (f *Fake) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.w, f.h
}

// Resize changes the size and notifies every listener synchronously.
func (f *Fake) Resize(w, h int) {
	f.mu.Lock()
	f.w, f.h = w, h
	fns := make([]func(), 0, len(f.listeners))
	for id := 0; id < f.nextID; id++ {
		if fn, ok := f.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// AttachDrawable records d.
func (f *Fake) AttachDrawable(d Drawable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AttachErr != nil {
		return f.AttachErr
	}
	f.drawables = append(f.drawables, d)
	return nil
}

// DetachDrawable removes d if attached.
func (f *Fake) DetachDrawable(d Drawable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.drawables {
		if cur == d {
			f.drawables = append(f.drawables[:i], f.drawables[i+1:]...)
			return
		}
	}
}

// Drawables returns the attached drawables.
func (f *Fake) Drawables() []Drawable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Drawable(nil), f.drawables...)
}

// OnResize subscribes fn.
func (f *Fake) OnResize(fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// Listeners returns the number of resize subscribers.
func (f *Fake) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}
