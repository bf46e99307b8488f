// Package clipboard copies answer text to the system clipboard and tracks
// the short-lived "Copied!" feedback shown after a successful copy.
package clipboard

import (
	"time"

	"github.com/atotto/clipboard"
)

// FeedbackDuration is how long the copied indicator stays visible
const FeedbackDuration = 2 * time.Second

// writeAll is a package-level variable to allow mocking in tests.
var writeAll = clipboard.WriteAll

// Supported reports whether a system clipboard is available
func Supported() bool {
	return !clipboard.Unsupported
}

// Feedback holds the copied indicator for one copy control
type Feedback struct {
	Copied bool
	// Write replaces the system clipboard when set
	Write func(text string) error
	seq   int
}

// Copy writes text to the clipboard. On success it sets Copied and returns
// the sequence number to pass to Expire once FeedbackDuration has elapsed.
func (f *Feedback) Copy(text string) (bool, int) {
	write := f.Write
	if write == nil {
		write = writeAll
	}
	if err := write(text); err != nil {
		return false, f.seq
	}
	f.seq++
	f.Copied = true
	return true, f.seq
}

// Expire clears Copied unless a newer copy has happened since seq
func (f *Feedback) Expire(seq int) {
	if seq == f.seq {
		f.Copied = false
	}
}

// Reset clears Copied and invalidates every pending Expire
func (f *Feedback) Reset() {
	f.seq++
	f.Copied = false
}
