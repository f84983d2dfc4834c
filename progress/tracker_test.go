package progress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerFiveEqualSamples(t *testing.T) {
	const total = 1_000_000
	tr := NewTracker()

	var seen []int
	for i := 1; i <= 5; i++ {
		if pct, ok := tr.Update(int64(i*total/5), total); ok {
			seen = append(seen, pct)
		}
	}
	if pct, ok := tr.Complete(); ok {
		seen = append(seen, pct)
	}

	require.NotEmpty(t, seen)
	assert.Equal(t, []int{20, 40, 60, 80, 100}, seen)
	assert.IsNonDecreasing(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
}

func TestTrackerIgnoresUnknownTotal(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Update(500, 0)
	assert.False(t, ok)
	_, ok = tr.Update(500, -1)
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Percent())
}

func TestTrackerNeverDecreases(t *testing.T) {
	tr := NewTracker()
	pct, ok := tr.Update(70, 100)
	require.True(t, ok)
	assert.Equal(t, 70, pct)

	pct, ok = tr.Update(30, 100)
	assert.False(t, ok)
	assert.Equal(t, 70, pct)

	pct, ok = tr.Update(250, 100)
	assert.True(t, ok)
	assert.Equal(t, 100, pct, "percentage is clamped")
}

func TestTrackerRounding(t *testing.T) {
	tr := NewTracker()
	pct, ok := tr.Update(1, 3)
	require.True(t, ok)
	assert.Equal(t, 33, pct)
	pct, _ = tr.Update(2, 3)
	assert.Equal(t, 67, pct)
}

func TestTrackerCompleteOnce(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Update(10, 10)
	require.True(t, ok)
	_, ok = tr.Complete()
	assert.False(t, ok, "100 was already emitted")

	tr.Reset()
	assert.Equal(t, 0, tr.Percent())
	pct, ok := tr.Complete()
	assert.True(t, ok)
	assert.Equal(t, 100, pct)
}

func TestReaderReportsLoaded(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)
	var samples []int64
	r := NewReader(bytes.NewReader(data), int64(len(data)), func(loaded, total int64) {
		assert.Equal(t, int64(1000), total)
		samples = append(samples, loaded)
	})

	buf := make([]byte, 100)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1000), r.Loaded())
	assert.Len(t, samples, 10)
	assert.IsIncreasing(t, samples)
}
