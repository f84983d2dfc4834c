package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/shareit-go/backendtest"
	"github.com/moyoez/shareit-go/history"
	"github.com/moyoez/shareit-go/notify"
	"github.com/moyoez/shareit-go/session"
	"github.com/moyoez/shareit-go/transfer"
	"github.com/moyoez/shareit-go/types"
)

type apiFixture struct {
	backend  *backendtest.Server
	sessions *session.Controller
	handler  http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	backend := backendtest.New()
	t.Cleanup(backend.Close)
	prober := transfer.NewProber(backend.URL, time.Second)
	sessions := session.New(session.Options{
		Prober:         prober,
		Client:         transfer.NewClient(backend.URL, nil),
		History:        history.NewMemoryStore(),
		DownloadFolder: t.TempDir(),
	})
	srv := NewServer(Options{
		Sessions: sessions,
		Prober:   prober,
		Hub:      notify.NewHub(),
		Defaults: types.ShareDefaults{ExpiryMinutes: 15},
	})
	return &apiFixture{backend: backend, sessions: sessions, handler: srv.Handler()}
}

type apiResponse struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data"`
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req.RemoteAddr = "127.0.0.1:40000"
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func shareRequest(t *testing.T, files map[string]string, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for name, content := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/self/v1/share", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func receiveRequest(code string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/self/v1/receive", strings.NewReader(`{"code":"`+code+`"}`))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestOnlyLoopbackClients(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/self/v1/status", nil)
	req.RemoteAddr = "192.168.1.20:5555"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, f.backend.TotalCalls())
}

func TestCORSPreflight(t *testing.T) {
	f := newAPIFixture(t)
	w, _ := f.do(t, httptest.NewRequest(http.MethodOptions, "/api/self/v1/share", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatus(t *testing.T) {
	f := newAPIFixture(t)
	w, resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/self/v1/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Running  bool   `json:"running"`
		Response string `json:"response"`
		Busy     bool   `json:"busy"`
	}
	require.NoError(t, sonic.Unmarshal(resp.Data, &status))
	assert.True(t, status.Running)
	assert.Equal(t, "File sharing server is running", status.Response)
	assert.False(t, status.Busy)
}

func TestShareAndHistory(t *testing.T) {
	f := newAPIFixture(t)
	f.backend.SetPort(4821)

	w, resp := f.do(t, shareRequest(t, map[string]string{"notes.txt": "hello"}, map[string]string{
		"password":      "secret",
		"expiryMinutes": "30",
		"oneTime":       "true",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var s types.TransferSession
	require.NoError(t, sonic.Unmarshal(resp.Data, &s))
	assert.Equal(t, "4821", s.Code)
	assert.Equal(t, types.StatusSucceeded, s.Status)
	assert.Equal(t, types.ShareOptions{Password: "secret", ExpiryMinutes: 30, OneTime: true}, s.Options)

	name, content, ok := f.backend.Uploaded(4821)
	require.True(t, ok)
	assert.Equal(t, "notes.txt", name)
	assert.Equal(t, "hello", string(content))

	_, resp = f.do(t, httptest.NewRequest(http.MethodGet, "/api/self/v1/history", nil))
	var entries []types.HistoryEntry
	require.NoError(t, sonic.Unmarshal(resp.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, types.HistoryShare, entries[0].Type)
	assert.Equal(t, "notes.txt", entries[0].Name)

	w, _ = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/self/v1/history", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	_, resp = f.do(t, httptest.NewRequest(http.MethodGet, "/api/self/v1/history", nil))
	assert.JSONEq(t, "[]", string(resp.Data))
}

func TestShareValidation(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, shareRequest(t, nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidInput", resp.Kind)

	w, resp = f.do(t, shareRequest(t, map[string]string{"a.txt": "a"}, map[string]string{"expiryMinutes": "soon"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidInput", resp.Kind)
	assert.Equal(t, 0, f.backend.TotalCalls())
}

func TestReceiveFailures(t *testing.T) {
	f := newAPIFixture(t)

	w, resp := f.do(t, receiveRequest("abc"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidInput", resp.Kind)
	assert.Equal(t, 0, f.backend.TotalCalls())

	w, resp = f.do(t, receiveRequest("6000"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "ServerRejected", resp.Kind)

	f.backend.SetRootStatus(http.StatusInternalServerError)
	w, resp = f.do(t, receiveRequest("6000"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ServerUnavailable", resp.Kind)
}

func TestReceiveSuccess(t *testing.T) {
	f := newAPIFixture(t)
	f.backend.Offer(4821, "movie.mp4", []byte("frames"))

	w, resp := f.do(t, receiveRequest("4821"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s types.TransferSession
	require.NoError(t, sonic.Unmarshal(resp.Data, &s))
	assert.Equal(t, "movie.mp4", s.Filename)
	assert.Equal(t, 100, s.Progress)

	_, resp = f.do(t, httptest.NewRequest(http.MethodGet, "/api/self/v1/session", nil))
	var current types.TransferSession
	require.NoError(t, sonic.Unmarshal(resp.Data, &current))
	assert.Equal(t, s.ID, current.ID)
}

type blockingProber struct {
	release chan struct{}
}

func (b *blockingProber) Check(ctx context.Context) types.ServerStatusReport {
	<-b.release
	return types.ServerStatusReport{IsRunning: false, Error: "stopped"}
}

func TestBusyWhileInFlight(t *testing.T) {
	prober := &blockingProber{release: make(chan struct{})}
	sessions := session.New(session.Options{
		Prober:  prober,
		History: history.NewMemoryStore(),
	})
	f := &apiFixture{sessions: sessions, handler: NewServer(Options{Sessions: sessions, Prober: prober}).Handler()}

	done := make(chan int, 1)
	go func() {
		req := receiveRequest("1")
		req.RemoteAddr = "127.0.0.1:40001"
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)
		done <- w.Code
	}()
	require.Eventually(t, sessions.Busy, time.Second, 5*time.Millisecond)

	w, resp := f.do(t, receiveRequest("2"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Busy", resp.Kind)

	close(prober.release)
	assert.Equal(t, http.StatusServiceUnavailable, <-done)
}

func TestCreateQRCode(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/self/v1/create-qr-code?data=4821&size=128x128", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w, resp := f.do(t, httptest.NewRequest(http.MethodGet, "/api/self/v1/create-qr-code", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Error, "data")
}
