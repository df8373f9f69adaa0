// Package spinner renders a terminal activity indicator for the long-running
// evaluation phases.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is an animated single-line indicator. The message can change while
// it runs, so one spinner can track an evaluation across phases.
type Spinner struct {
	w    io.Writer
	done chan struct{}

	mu       sync.Mutex
	message  string
	maxWidth int
	stopOnce sync.Once
	cleared  chan struct{}
}

// Start displays an animated spinner with the given message on w.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:        w,
		done:     make(chan struct{}),
		cleared:  make(chan struct{}),
		message:  message,
		maxWidth: runewidth.StringWidth(message),
	}
	go s.run()
	return s
}

// SetMessage swaps the displayed message on the next frame.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if w := runewidth.StringWidth(message); w > s.maxWidth {
		s.maxWidth = w
	}
}

// Stop halts the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.cleared
}

func (s *Spinner) run() {
	i := 0
	for {
		select {
		case <-s.done:
			s.mu.Lock()
			width := s.maxWidth
			s.mu.Unlock()
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", width+2)) //nolint:errcheck
			close(s.cleared)
			return
		case <-time.After(80 * time.Millisecond):
			s.mu.Lock()
			message := s.message
			width := s.maxWidth
			s.mu.Unlock()
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], message)
			fmt.Fprintf(s.w, "\r%s", padRight(line, width+2)) //nolint:errcheck
			i++
		}
	}
}

func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
