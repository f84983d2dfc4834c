package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/shareit-go/types"
)

type recordingSink struct {
	mu  sync.Mutex
	got []*types.Notification
}

func (r *recordingSink) Broadcast(n *types.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingSink) all() []*types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*types.Notification(nil), r.got...)
}

func progressEvent(pct int) types.SessionEvent {
	return types.SessionEvent{
		Type:    types.EventTypeProgress,
		Session: types.TransferSession{Direction: types.DirectionShare, Progress: pct, Status: types.StatusInFlight},
	}
}

func statusEvent(status types.Status) types.SessionEvent {
	return types.SessionEvent{
		Type:    types.EventTypeStatus,
		Session: types.TransferSession{Direction: types.DirectionShare, Status: status, Code: "4821"},
	}
}

func TestRelayThrottlesIntermediateProgress(t *testing.T) {
	sink := &recordingSink{}
	relay := NewRelay(0.001, sink)

	relay.Forward(statusEvent(types.StatusInFlight))
	for pct := 10; pct <= 90; pct += 10 {
		relay.Forward(progressEvent(pct))
	}
	relay.Forward(progressEvent(100))
	relay.Forward(statusEvent(types.StatusSucceeded))

	got := sink.all()
	require.Len(t, got, 4, "status, first progress, 100 and final status")
	assert.Equal(t, types.NotifyTypeStatus, got[0].Type)
	assert.Equal(t, "10%", got[1].Message)
	assert.Equal(t, "100%", got[2].Message)
	assert.Equal(t, "File shared, code: 4821", got[3].Message)
}

func TestRelayUnthrottled(t *testing.T) {
	sink := &recordingSink{}
	relay := NewRelay(0, sink)
	for pct := 1; pct <= 5; pct++ {
		relay.Forward(progressEvent(pct))
	}
	assert.Len(t, sink.all(), 5)
}

func TestRelayRunStopsOnClose(t *testing.T) {
	sink := &recordingSink{}
	relay := NewRelay(0, sink)
	events := make(chan types.SessionEvent, 2)
	events <- statusEvent(types.StatusProbing)
	events <- statusEvent(types.StatusFailed)
	close(events)

	done := make(chan struct{})
	go func() {
		relay.Run(context.Background(), events)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	assert.Len(t, sink.all(), 2)
}

func TestDescribe(t *testing.T) {
	n := Describe(types.SessionEvent{
		Type: types.EventTypeStatus,
		Session: types.TransferSession{
			Direction: types.DirectionReceive,
			Status:    types.StatusSucceeded,
			Filename:  "report.pdf",
		},
	})
	assert.Equal(t, "Receive", n.Title)
	assert.Equal(t, "File downloaded: report.pdf", n.Message)

	n = Describe(types.SessionEvent{
		Type:    types.EventTypeStatus,
		Session: types.TransferSession{Status: types.StatusFailed, Error: "backend server is not accessible"},
	})
	assert.Equal(t, "backend server is not accessible", n.Message)
	assert.Contains(t, n.Data, "session")
}
