// Package frameloop drives a per-frame callback chained to the host's
// refresh signal.
package frameloop

import (
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/logger"
)

// FrameID identifies a pending frame request.
type FrameID uint64

// FrameRequester runs a callback on the host loop at the next refresh.
type FrameRequester interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// State is the scheduler lifecycle state.
type State uint8

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Scheduler calls tick once per frame between Start and Stop. Once stopped
// it cannot be restarted. It is not safe for concurrent use; call it from
// the host loop.
type Scheduler struct {
	frames FrameRequester
	tick   func()

	state   State
	pending FrameID
	waiting bool
	count   uint64
}

// New creates an idle scheduler.
func New(frames FrameRequester, tick func()) *Scheduler {
	return &Scheduler{frames: frames, tick: tick}
}

// Start begins the frame chain. It does nothing unless the scheduler is idle.
func (s *Scheduler) Start() {
	if s.state != Idle {
		return
	}
	s.state = Running
	logger.Debug("frame loop started")
	s.request()
}

// Stop cancels the pending frame and ends the chain. It does nothing unless
// the scheduler is running.
func (s *Scheduler) Stop() {
	if s.state != Running {
		return
	}
	s.state = Stopped
	if s.waiting {
		s.frames.CancelFrame(s.pending)
		s.waiting = false
	}
	logger.Debug("frame loop stopped", zap.Uint64("frames", s.count))
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Pending reports whether a frame request is outstanding.
func (s *Scheduler) Pending() bool {
	return s.waiting
}

// Frames returns the number of ticks run.
func (s *Scheduler) Frames() uint64 {
	return s.count
}

func (s *Scheduler) request() {
	s.pending = s.frames.RequestFrame(s.frame)
	s.waiting = true
}

func (s *Scheduler) frame() {
	if s.state != Running {
		return
	}
	s.waiting = false
	s.count++
	s.tick()
	// tick may have stopped us
	if s.state == Running {
		s.request()
	}
}
