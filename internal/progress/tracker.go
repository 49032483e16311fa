// Package progress renders a terminal progress bar for row scanning and
// loading.
package progress

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker counts rows and drives the terminal bar. A negative total renders
// a spinner, for streams whose length is unknown up front.
type Tracker struct {
	bar       *progressbar.ProgressBar
	current   atomic.Int64
	startTime time.Time
	quiet     bool
}

// New creates a tracker. With quiet set, no bar is rendered and only the
// counters are kept.
func New(description string, total int64, quiet bool) *Tracker {
	t := &Tracker{startTime: time.Now(), quiet: quiet}
	if quiet {
		return t
	}
	t.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionSpinnerType(14),
	)
	return t
}

// Add increments the row counter.
func (t *Tracker) Add(n int64) {
	t.current.Add(n)
	if t.bar != nil {
		t.bar.Add64(n)
	}
}

// Current returns the number of rows counted so far.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Finish closes the bar and prints a one-line summary.
func (t *Tracker) Finish(what string) {
	if t.bar != nil {
		t.bar.Finish()
		fmt.Println()
	}
	if t.quiet {
		return
	}
	elapsed := time.Since(t.startTime)
	rowsPerSec := float64(t.current.Load()) / elapsed.Seconds()
	fmt.Printf("%s %d rows in %s (%.0f rows/sec)\n",
		what, t.current.Load(), elapsed.Round(time.Second), rowsPerSec)
}
