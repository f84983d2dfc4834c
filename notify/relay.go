// Package notify pushes session events to observers: browser tabs over WebSocket and an
// optional desktop notifier over a Unix socket.
package notify

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/moyoez/shareit-go/types"
)

// Sink receives notifications. Implementations must not block for long.
type Sink interface {
	Broadcast(notification *types.Notification)
}

// Relay turns session events into notifications. Status changes and the final 100% are always
// forwarded; intermediate progress is throttled.
type Relay struct {
	sinks   []Sink
	limiter *rate.Limiter
}

// NewRelay creates a relay that forwards at most perSecond intermediate progress updates.
// A non-positive perSecond disables throttling.
func NewRelay(perSecond float64, sinks ...Sink) *Relay {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Relay{sinks: sinks, limiter: rate.NewLimiter(limit, 1)}
}

// Run forwards events until ctx is done or events is closed.
func (r *Relay) Run(ctx context.Context, events <-chan types.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Forward(ev)
		}
	}
}

// Forward converts one event and hands it to every sink unless it is throttled.
func (r *Relay) Forward(ev types.SessionEvent) {
	if ev.Type == types.EventTypeProgress && ev.Session.Progress < 100 && !r.limiter.Allow() {
		return
	}
	n := Describe(ev)
	for _, s := range r.sinks {
		s.Broadcast(n)
	}
}

// Describe builds the notification for a session event.
func Describe(ev types.SessionEvent) *types.Notification {
	s := ev.Session
	n := &types.Notification{
		Data: map[string]any{"session": s},
	}
	if ev.Type == types.EventTypeProgress {
		n.Type = types.NotifyTypeProgress
		n.Title = directionTitle(s.Direction)
		n.Message = fmt.Sprintf("%d%%", s.Progress)
		return n
	}

	n.Type = types.NotifyTypeStatus
	n.Title = directionTitle(s.Direction)
	switch s.Status {
	case types.StatusValidating:
		n.Message = "Checking input"
	case types.StatusProbing:
		n.Message = "Checking backend server"
	case types.StatusInFlight:
		n.Message = "Transferring"
	case types.StatusSucceeded:
		if s.Direction == types.DirectionShare {
			n.Message = fmt.Sprintf("File shared, code: %s", s.Code)
		} else {
			n.Message = fmt.Sprintf("File downloaded: %s", s.Filename)
		}
	case types.StatusFailed:
		n.Message = s.Error
	default:
		n.Message = string(s.Status)
	}
	return n
}

func directionTitle(d types.Direction) string {
	if d == types.DirectionReceive {
		return "Receive"
	}
	return "Share"
}
