// Package session orchestrates one share or receive at a time: validate, probe, transfer,
// commit history. Observers follow it through Subscribe and Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/moyoez/shareit-go/history"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/transfer"
	"github.com/moyoez/shareit-go/types"
)

// ErrBusy is returned when a share or receive is submitted while another one is in flight.
var ErrBusy = errors.New("a transfer is already in progress")

// Prober reports whether the transfer service is reachable.
type Prober interface {
	Check(ctx context.Context) types.ServerStatusReport
}

// Transferer performs the upload and download exchanges.
type Transferer interface {
	Upload(ctx context.Context, file types.FileRef, onProgress transfer.ProgressFunc) (*types.UploadResponse, error)
	Download(ctx context.Context, code string, dst io.Writer, onProgress transfer.ProgressFunc) (*types.DownloadResult, error)
}

// Options wires a Controller.
type Options struct {
	Prober         Prober
	Client         Transferer
	History        history.Store
	DownloadFolder string
	Now            func() time.Time // defaults to time.Now
}

// ShareRequest is a submitted share form.
type ShareRequest struct {
	Files   []types.FileRef
	Options types.ShareOptions
}

// ReceiveRequest is a submitted receive form.
type ReceiveRequest struct {
	Code string
}

// Controller owns the current TransferSession and only changes it through state transitions.
type Controller struct {
	prober         Prober
	client         Transferer
	history        history.Store
	downloadFolder string
	now            func() time.Time

	mu      sync.Mutex
	current types.TransferSession
	busy    bool

	// pubMu keeps snapshot order and delivery order the same across publishers.
	pubMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]*subscription
	nextSub int
}

const subscriberBuffer = 64

type subscription struct {
	ch   chan types.SessionEvent
	done chan struct{}
}

// New creates a controller in the Idle state.
func New(opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	folder := opts.DownloadFolder
	if folder == "" {
		folder = "."
	}
	return &Controller{
		prober:         opts.Prober,
		client:         opts.Client,
		history:        opts.History,
		downloadFolder: folder,
		now:            now,
		current:        types.TransferSession{Status: types.StatusIdle},
		subs:           make(map[int]*subscription),
	}
}

// Session returns a snapshot of the current (or last finished) session.
func (c *Controller) Session() types.TransferSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.current)
}

// Busy reports whether a session is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// History returns the persisted entries, most recent first.
func (c *Controller) History(ctx context.Context) []types.HistoryEntry {
	return c.history.Load(ctx)
}

// ClearHistory empties the persisted history.
func (c *Controller) ClearHistory(ctx context.Context) error {
	return c.history.Clear(ctx)
}

// Subscribe returns a stream of session events and a function to stop it.
// Publishing never waits for a subscriber: when its buffer is full the oldest queued event
// is dropped, so the latest status is always the last one it receives.
func (c *Controller) Subscribe() (<-chan types.SessionEvent, func()) {
	sub := &subscription{
		ch:   make(chan types.SessionEvent, subscriberBuffer),
		done: make(chan struct{}),
	}
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = sub
	c.subsMu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
			close(sub.done)
		})
	}
}

// Share validates the selection, probes the service, uploads the first selected file and
// records one share entry per selected file. The returned error is a *transfer.Error or ErrBusy.
func (c *Controller) Share(ctx context.Context, req ShareRequest) (types.TransferSession, error) {
	names := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		names = append(names, f.Name)
	}
	id, err := c.begin(types.DirectionShare, func(s *types.TransferSession) {
		s.Files = names
		s.Options = req.Options
	})
	if err != nil {
		return c.Session(), err
	}

	if len(req.Files) == 0 {
		return c.fail(transfer.InvalidInput("no file selected"))
	}
	for _, f := range req.Files {
		if f.Open == nil || f.Name == "" {
			return c.fail(transfer.InvalidInput(fmt.Sprintf("file %q cannot be read", f.Name)))
		}
	}

	if err := c.probe(ctx); err != nil {
		return c.fail(err)
	}

	c.transition(types.StatusInFlight)
	if req.Options.Password != "" || req.Options.OneTime || req.Options.ExpiryMinutes > 0 {
		tool.DefaultLogger.Infof("Share options (password set: %t, expiry: %d min, one-time: %t) are advisory and not sent to the service",
			req.Options.Password != "", req.Options.ExpiryMinutes, req.Options.OneTime)
	}
	if len(req.Files) > 1 {
		tool.DefaultLogger.Warnf("%d files selected, only %s is uploaded", len(req.Files), req.Files[0].Name)
	}

	resp, err := c.client.Upload(ctx, req.Files[0], c.progressFor(id))
	if err != nil {
		return c.fail(transfer.Classify(err))
	}

	c.mu.Lock()
	c.current.Code = resp.Code()
	c.mu.Unlock()

	at := c.now()
	for _, name := range names {
		c.commit(ctx, history.NewEntry(types.HistoryShare, name, at))
	}
	return c.succeed()
}

// Receive validates the code, probes the service, downloads the content into the download
// folder under the name the service suggested and records one download entry.
func (c *Controller) Receive(ctx context.Context, req ReceiveRequest) (types.TransferSession, error) {
	code := strings.TrimSpace(req.Code)
	id, err := c.begin(types.DirectionReceive, func(s *types.TransferSession) {
		s.Code = code
	})
	if err != nil {
		return c.Session(), err
	}

	if code == "" {
		return c.fail(transfer.InvalidInput("please enter a valid code"))
	}
	if _, err := transfer.ParseCode(code); err != nil {
		return c.fail(transfer.Classify(err))
	}

	if err := c.probe(ctx); err != nil {
		return c.fail(err)
	}

	c.transition(types.StatusInFlight)
	if err := os.MkdirAll(c.downloadFolder, 0o755); err != nil {
		return c.fail(transfer.Classify(fmt.Errorf("failed to create download folder: %w", err)))
	}
	tmp, err := os.CreateTemp(c.downloadFolder, ".shareit-*.part")
	if err != nil {
		return c.fail(transfer.Classify(fmt.Errorf("failed to create download file: %w", err)))
	}
	tmpName := tmp.Name()

	res, err := c.client.Download(ctx, code, tmp, c.progressFor(id))
	closeErr := tmp.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write download: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return c.fail(transfer.Classify(err))
	}

	dest := tool.NextAvailablePath(c.downloadFolder, tool.SafeFileName(res.Filename))
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return c.fail(transfer.Classify(fmt.Errorf("failed to save %s: %w", res.Filename, err)))
	}
	tool.DefaultLogger.Infof("Saved %s to %s", res.Filename, dest)

	c.mu.Lock()
	c.current.Filename = res.Filename
	c.current.SavedPath = dest
	c.mu.Unlock()

	c.commit(ctx, history.NewEntry(types.HistoryDownload, res.Filename, c.now()))
	return c.succeed()
}

// begin starts a new session at Idle, moves it to Validating and returns its ID.
func (c *Controller) begin(dir types.Direction, init func(*types.TransferSession)) (string, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.busy = true
	id := tool.GenerateSessionID()
	c.current = types.TransferSession{
		ID:        id,
		Direction: dir,
		Status:    types.StatusIdle,
		StartedAt: c.now(),
	}
	init(&c.current)
	c.mu.Unlock()

	tool.DefaultLogger.Debugf("Session %s (%s) started", id, dir)
	c.transition(types.StatusValidating)
	return id, nil
}

func (c *Controller) probe(ctx context.Context) *transfer.Error {
	c.transition(types.StatusProbing)
	report := c.prober.Check(ctx)
	if !report.IsRunning {
		return transfer.ServerUnavailable(report.Error)
	}
	return nil
}

func (c *Controller) transition(status types.Status) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	c.current.Status = status
	if status.Terminal() {
		c.current.EndedAt = c.now()
	}
	snap := snapshot(c.current)
	c.mu.Unlock()
	c.publish(types.SessionEvent{Type: types.EventTypeStatus, Session: snap})
}

// progressFor binds progress callbacks to session id. The HTTP transport may still report
// after Upload returned, and such late reports must not reach a later session.
func (c *Controller) progressFor(id string) transfer.ProgressFunc {
	return func(pct int) {
		c.setProgress(id, pct)
	}
}

func (c *Controller) setProgress(id string, pct int) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	if c.current.ID != id || c.current.Status.Terminal() || pct <= c.current.Progress {
		c.mu.Unlock()
		return
	}
	c.current.Progress = min(pct, 100)
	snap := snapshot(c.current)
	c.mu.Unlock()
	c.publish(types.SessionEvent{Type: types.EventTypeProgress, Session: snap})
}

func (c *Controller) commit(ctx context.Context, entry types.HistoryEntry) {
	if err := c.history.Append(ctx, entry); err != nil {
		tool.DefaultLogger.Warnf("Failed to record %s of %s in history: %v", entry.Type, entry.Name, err)
	}
}

func (c *Controller) succeed() (types.TransferSession, error) {
	c.mu.Lock()
	id := c.current.ID
	c.mu.Unlock()
	c.setProgress(id, 100)
	c.transition(types.StatusSucceeded)
	c.release()
	s := c.Session()
	tool.DefaultLogger.Infof("Session %s (%s) succeeded", s.ID, s.Direction)
	return s, nil
}

func (c *Controller) fail(err *transfer.Error) (types.TransferSession, error) {
	c.mu.Lock()
	c.current.ErrorKind = err.Kind.String()
	c.current.Error = err.Error()
	c.mu.Unlock()
	c.transition(types.StatusFailed)
	c.release()
	s := c.Session()
	tool.DefaultLogger.Warnf("Session %s (%s) failed: %s", s.ID, s.Direction, s.Error)
	return s, err
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// publish hands ev to every subscriber without waiting. A full buffer loses its oldest event.
func (c *Controller) publish(ev types.SessionEvent) {
	c.subsMu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subsMu.Unlock()

	for _, s := range subs {
		s.offer(ev)
	}
}

func (s *subscription) offer(ev types.SessionEvent) {
	for {
		select {
		case <-s.done:
			return
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func snapshot(s types.TransferSession) types.TransferSession {
	if s.Files != nil {
		s.Files = append([]string(nil), s.Files...)
	}
	return s
}
