package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar renders a session's percentage on a terminal.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBar creates a 0..100 bar writing to w.
func NewBar(w io.Writer, description string) *Bar {
	return &Bar{
		w: w,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(w, "\n")
			}),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

// Set moves the bar to percent.
func (b *Bar) Set(percent int) {
	_ = b.bar.Set(percent)
}

// Describe updates the label shown next to the bar.
func (b *Bar) Describe(desc string) {
	b.bar.Describe(desc)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// Error stops the bar and prints err below it.
func (b *Bar) Error(err error) {
	_ = b.bar.Exit()
	if err != nil {
		fmt.Fprintf(b.w, "\nError: %v\n", err)
	}
}
