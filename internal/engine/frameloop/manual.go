package frameloop

import (
	"context"
	"sync"
)

// Manual is a host loop driven by hand. It requests frames and queues posted
// work until Step or RunPosted is called, which makes it usable for tests and
// headless runs. Post is safe from any goroutine; everything else belongs to
// the goroutine driving the loop.
type Manual struct {
	mu     sync.Mutex
	nextID FrameID
	frames []manualFrame
	tasks  []func()
	notify chan struct{}
}

type manualFrame struct {
	id FrameID
	fn func()
}

// NewManual creates an empty manual host.
func NewManual() *Manual {
	return &Manual{notify: make(chan struct{}, 1)}
}

// RequestFrame queues fn for the next Step.
func (m *Manual) RequestFrame(fn func()) FrameID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.frames = append(m.frames, manualFrame{id: m.nextID, fn: fn})
	return m.nextID
}

// CancelFrame drops a queued frame.
func (m *Manual) CancelFrame(id FrameID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.frames {
		if f.id == id {
			m.frames = append(m.frames[:i], m.frames[i+1:]...)
			return
		}
	}
}

// PendingFrames returns the number of queued frames.
func (m *Manual) PendingFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// Step runs the frames queued before the call and returns how many ran.
// Frames requested while stepping wait for the next Step.
func (m *Manual) Step() int {
	m.mu.Lock()
	frames := m.frames
	m.frames = nil
	m.mu.Unlock()

	for _, f := range frames {
		f.fn()
	}
	return len(frames)
}

// Post queues fn to run on the loop.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.tasks = append(m.tasks, fn)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Queued returns the number of posted tasks waiting to run.
func (m *Manual) Queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunPosted runs queued tasks, including ones they post, and returns how
// many ran.
func (m *Manual) RunPosted() int {
	n := 0
	for {
		m.mu.Lock()
		tasks := m.tasks
		m.tasks = nil
		m.mu.Unlock()

		if len(tasks) == 0 {
			return n
		}
		for _, fn := range tasks {
			fn()
		}
		n += len(tasks)
	}
}

// AwaitPosted blocks until at least one task is queued, then runs the queue.
func (m *Manual) AwaitPosted(ctx context.Context) (int, error) {
	for {
		if n := m.RunPosted(); n > 0 {
			return n, nil
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}
