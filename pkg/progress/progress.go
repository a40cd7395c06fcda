package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is an interactive terminal. Progress output
// is suppressed otherwise so piped HTML stays clean.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Spinner shows activity while a single render is in flight.
type Spinner struct {
	mu         sync.Mutex
	writer     io.Writer
	frames     []string
	frameIndex int
	message    string
	running    bool
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// NewSpinner creates a spinner that draws on stderr.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		writer:  os.Stderr,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
	}
}

func (s *Spinner) SetWriter(w io.Writer) {
	s.writer = w
}

// Start is a no-op when already running.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.animate()
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprint(s.writer, "\r\033[K")
}

func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) animate() {
	defer s.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := s.frames[s.frameIndex%len(s.frames)]
			message := s.message
			s.frameIndex++
			s.mu.Unlock()

			fmt.Fprintf(s.writer, "\r%s %s", frame, message)
		}
	}
}

// Bar tracks a batch of conversions. Increment is safe for concurrent use.
type Bar struct {
	mu        sync.Mutex
	writer    io.Writer
	width     int
	current   int
	fallbacks int
	total     int
	message   string
}

func NewBar(total int, message string) *Bar {
	return &Bar{
		writer:  os.Stderr,
		width:   30,
		total:   total,
		message: message,
	}
}

func (b *Bar) SetWriter(w io.Writer) {
	b.writer = w
}

// Increment records one finished item. Items that fell back are also counted
// separately.
func (b *Bar) Increment(fallback bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	if fallback {
		b.fallbacks++
	}
	b.draw()
}

func (b *Bar) draw() {
	if b.total <= 0 {
		return
	}
	percent := float64(b.current) / float64(b.total)
	filled := min(int(percent*float64(b.width)), b.width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.width-filled)
	suffix := ""
	if b.fallbacks > 0 {
		suffix = fmt.Sprintf(", %d fallback", b.fallbacks)
	}
	fmt.Fprintf(b.writer, "\r%s [%s] %d/%d%s", b.message, bar, b.current, b.total, suffix)
}

// Finish ends the bar line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.total > 0 {
		fmt.Fprintln(b.writer)
	}
}

// WithSpinner runs fn with a spinner on stderr when stderr is a terminal.
func WithSpinner(message string, fn func() error) error {
	if !IsTerminal(os.Stderr) {
		return fn()
	}
	spinner := NewSpinner(message)
	spinner.Start()
	defer spinner.Stop()
	return fn()
}
