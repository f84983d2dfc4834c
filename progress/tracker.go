// Package progress converts byte counts into percentages and renders them.
package progress

import (
	"io"
	"math"
	"sync"
)

// Tracker turns (loaded, total) byte samples into a percentage in [0,100] that never decreases.
// A Tracker is used for one session and reset before the next.
type Tracker struct {
	mu      sync.Mutex
	percent int
	emitted bool
}

// NewTracker returns a tracker at 0%.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update records a sample. It reports the current percentage and whether it should be emitted:
// samples without a known total are ignored, and a sample that does not move the
// percentage forward is not emitted again.
func (t *Tracker) Update(loaded, total int64) (int, bool) {
	if total <= 0 {
		return t.Percent(), false
	}
	pct := int(math.Round(float64(loaded) * 100 / float64(total)))
	pct = min(max(pct, 0), 100)

	t.mu.Lock()
	defer t.mu.Unlock()
	if pct < t.percent || (pct == t.percent && t.emitted) {
		return t.percent, false
	}
	t.percent = pct
	t.emitted = true
	return pct, true
}

// Complete moves the tracker to 100. The bool is false when 100 was already emitted.
func (t *Tracker) Complete() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.percent == 100 && t.emitted {
		return 100, false
	}
	t.percent = 100
	t.emitted = true
	return 100, true
}

// Percent returns the last recorded percentage.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Reset puts the tracker back to 0% for a new session.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.percent = 0
	t.emitted = false
}

// Reader counts bytes read through it and reports each step.
type Reader struct {
	r      io.Reader
	total  int64
	read   int64
	onRead func(loaded, total int64)
}

// NewReader wraps r. total may be <= 0 when unknown.
func NewReader(r io.Reader, total int64, onRead func(loaded, total int64)) *Reader {
	return &Reader{r: r, total: total, onRead: onRead}
}

func (p *Reader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.onRead != nil {
			p.onRead(p.read, p.total)
		}
	}
	return n, err
}

// Loaded returns the number of bytes read so far.
func (p *Reader) Loaded() int64 {
	return p.read
}
