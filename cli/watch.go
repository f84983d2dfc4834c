package cli

import (
	"io"

	"github.com/moyoez/shareit-go/progress"
	"github.com/moyoez/shareit-go/session"
	"github.com/moyoez/shareit-go/types"
)

// watch draws the running session on w. The returned finish func must be called once the
// share or receive call has returned; it waits for the final frame and unsubscribes.
func watch(sessions *session.Controller, w io.Writer, desc string) (finish func()) {
	events, stop := sessions.Subscribe()
	quit := make(chan struct{})
	done := make(chan struct{})

	var bar *progress.Bar
	// handle reports whether the session reached a terminal status.
	handle := func(ev types.SessionEvent) bool {
		switch {
		case ev.Type == types.EventTypeProgress:
			if bar != nil {
				bar.Set(ev.Session.Progress)
			}
		case ev.Session.Status == types.StatusInFlight:
			bar = progress.NewBar(w, desc)
		case ev.Session.Status == types.StatusSucceeded:
			if bar != nil {
				bar.Finish()
			}
			return true
		case ev.Session.Status == types.StatusFailed:
			if bar != nil {
				bar.Error(nil)
			}
			return true
		}
		return false
	}

	go func() {
		defer close(done)
		for {
			select {
			case ev := <-events:
				if handle(ev) {
					return
				}
			case <-quit:
				// events already buffered still belong to the finished session
				for {
					select {
					case ev := <-events:
						if handle(ev) {
							return
						}
					default:
						return
					}
				}
			}
		}
	}()

	return func() {
		close(quit)
		<-done
		stop()
	}
}
