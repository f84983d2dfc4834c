package tool

import (
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// QuickICMPProbe sends a single unprivileged echo request and reports whether a reply came back
// within timeout. Any setup error counts as unreachable.
func QuickICMPProbe(host string, timeout time.Duration) bool {
	if host == "" {
		return false
	}
	pinger, err := probing.NewPinger(host)
	if err != nil {
		DefaultLogger.Debugf("QuickICMPProbe: failed to create pinger for %s: %v", host, err)
		return false
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		DefaultLogger.Debugf("QuickICMPProbe: ping %s failed: %v", host, err)
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}
