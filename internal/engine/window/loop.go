package window

import (
	"context"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/modelview/internal/engine/input"
)

// idleWaitMs bounds how long the loop sleeps in the event queue when no
// frame is pending, so posted work is still picked up.
const idleWaitMs = 10

// Run is the host loop. Each iteration handles input, runs posted work, then
// runs requested frames and swaps buffers. It returns when the window is
// closed, Escape is pressed or ctx is done.
func (w *Window) Run(ctx context.Context, in *input.Input, onKey func(sdl.Scancode)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var quit bool
		if len(w.frames) > 0 {
			quit = in.Update()
		} else {
			quit = in.Wait(idleWaitMs)
		}
		if quit {
			return nil
		}

		for _, e := range in.Events() {
			switch e.Type {
			case input.EventWindowResize:
				w.notifyResize()
			case input.EventKeyDown:
				if e.Key == sdl.SCANCODE_ESCAPE {
					return nil
				}
				if onKey != nil {
					onKey(e.Key)
				}
			}
		}

		w.runPosted()
		w.runFrames()
	}
}
