package transfer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moyoez/shareit-go/backendtest"
	"github.com/stretchr/testify/assert"
)

func TestProbeRunning(t *testing.T) {
	backend := backendtest.New()
	defer backend.Close()

	report := NewProber(backend.URL, time.Second).Check(context.Background())
	assert.True(t, report.IsRunning)
	assert.Empty(t, report.Error)
	assert.Equal(t, "File sharing server is running", report.Response)
	assert.Equal(t, 1, backend.Calls(backendtest.EndpointRoot))
}

func TestProbeNon2xx(t *testing.T) {
	backend := backendtest.New()
	defer backend.Close()
	backend.SetRootStatus(http.StatusServiceUnavailable)

	report := NewProber(backend.URL, time.Second).Check(context.Background())
	assert.False(t, report.IsRunning)
	assert.Contains(t, report.Error, "503")
}

func TestProbeUnreachable(t *testing.T) {
	backend := backendtest.New()
	url := backend.URL
	backend.Close()

	report := NewProber(url, time.Second).Check(context.Background())
	assert.False(t, report.IsRunning)
	assert.NotEmpty(t, report.Error)
}

func TestProbeBadBaseURL(t *testing.T) {
	report := NewProber("ftp://example", time.Second).Check(context.Background())
	assert.False(t, report.IsRunning)
	assert.Contains(t, report.Error, "unsupported scheme")
}

func TestProbeDefaultTimeout(t *testing.T) {
	p := NewProber("http://localhost:8080", 0)
	assert.Equal(t, 5*time.Second, p.timeout)
}

func TestPingBudget(t *testing.T) {
	assert.Equal(t, 5*time.Second, pingBudget(context.Background(), 5*time.Second))

	expired, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	assert.LessOrEqual(t, pingBudget(expired, 5*time.Second), time.Duration(0))

	soon, cancelSoon := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelSoon()
	budget := pingBudget(soon, 5*time.Second)
	assert.Greater(t, budget, time.Duration(0))
	assert.LessOrEqual(t, budget, 200*time.Millisecond)
}

func TestPingStaysWithinCheckTimeout(t *testing.T) {
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer hung.Close()

	timeout := time.Second
	start := time.Now()
	report := NewProber(hung.URL, timeout).WithPing(true).Check(context.Background())
	elapsed := time.Since(start)

	assert.False(t, report.IsRunning)
	assert.Less(t, elapsed, timeout+800*time.Millisecond, "ping must not add a second timeout")
}
