package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

const maxProbeBody = 4 * 1024

// Prober checks that the transfer service answers on its root before any transfer.
type Prober struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	ping    bool
}

// NewProber creates a prober. A non-positive timeout falls back to 5s.
func NewProber(baseURL string, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = tool.DefaultProbeTimeout
	}
	return &Prober{
		baseURL: baseURL,
		timeout: timeout,
		client:  tool.NewDetectHTTPClient(timeout),
	}
}

// WithPing makes a failed probe also try an ICMP echo to the host and report the outcome.
func (p *Prober) WithPing(enabled bool) *Prober {
	p.ping = enabled
	return p
}

// Check issues GET / and reports the service as running only for a 2xx answer.
func (p *Prober) Check(ctx context.Context) types.ServerStatusReport {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url, err := tool.BuildRootURL(p.baseURL)
	if err != nil {
		return types.ServerStatusReport{IsRunning: false, Error: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.ServerStatusReport{IsRunning: false, Error: fmt.Sprintf("failed to create probe request: %v", err)}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		tool.DefaultLogger.Debugf("Probe %s failed: %v", url, err)
		return types.ServerStatusReport{IsRunning: false, Error: p.describe(ctx, fmt.Sprintf("%v", err))}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if readErr != nil {
		tool.DefaultLogger.Debugf("Probe %s: failed to read body: %v", url, readErr)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		tool.DefaultLogger.Debugf("Probe %s answered %s", url, resp.Status)
		return types.ServerStatusReport{IsRunning: false, Error: p.describe(ctx, "unexpected status: "+resp.Status)}
	}
	tool.DefaultLogger.Debugf("Probe %s answered %s", url, resp.Status)
	return types.ServerStatusReport{IsRunning: true, Response: string(body)}
}

// describe appends the ping outcome to msg, pinging only within what is left of the check deadline.
func (p *Prober) describe(ctx context.Context, msg string) string {
	if !p.ping {
		return msg
	}
	budget := pingBudget(ctx, p.timeout)
	if budget <= 0 {
		return msg
	}
	host := tool.HostOf(p.baseURL)
	if tool.QuickICMPProbe(host, budget) {
		return msg + " (host " + host + " answers ping, the transfer service is not responding)"
	}
	return msg + " (host " + host + " does not answer ping)"
}

func pingBudget(ctx context.Context, fallback time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	return min(time.Until(deadline), fallback)
}
