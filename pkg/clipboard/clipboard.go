// Package clipboard reads the system clipboard as plain text, reports when it
// changes and writes HTML together with a plain-text flavor.
//
// macOS exposes a pasteboard change counter, which is read directly. Other
// platforms have no portable equivalent, so System samples the text and bumps
// its own counter whenever the content hash differs from the previous sample.
// On Linux/Wayland writes are served by a detached copy of this binary that
// owns the selection and offers both text/html and text/plain, so pasting
// into rich-text apps renders formatting while plain editors get the source.
package clipboard

import (
	"crypto/sha256"
	"errors"
	"sync"

	atotto "github.com/atotto/clipboard"
)

// ServeCommand is the hidden subcommand that owns a Wayland selection.
const ServeCommand = "__clipboard-serve"

// ReadyLine is printed by the serve command once it owns the selection.
const ReadyLine = "ready"

// FailedPrefix starts the line printed by the serve command when it could not
// take the selection.
const FailedPrefix = "failed:"

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard: no clipboard utility available (install wl-clipboard, xclip or xsel)")

// Payload is what the serve command receives on stdin.
type Payload struct {
	HTML  string `json:"html"`
	Plain string `json:"plain"`
}

// System is the platform clipboard.
type System struct {
	mu      sync.Mutex
	count   int64
	lastSum [sha256.Size]byte
	sampled bool

	available   func() bool
	readText    func() (string, error)
	changeCount func() (int64, error)
	write       func(html, plain string) error
}

// New returns the clipboard of the current platform.
func New() *System {
	s := &System{
		available: func() bool { return !atotto.Unsupported },
		readText:  atotto.ReadAll,
		write:     writeRich,
	}
	s.changeCount = nativeChangeCount()
	return s
}

// Backend names the mechanism used for writes, for diagnostics.
func (s *System) Backend() string {
	return backend()
}

// ReadText returns the clipboard as plain text.
func (s *System) ReadText() (string, error) {
	if !s.supported() {
		return "", ErrUnsupported
	}
	return s.readText()
}

// ChangeCount returns a counter that increases whenever the clipboard changes.
func (s *System) ChangeCount() (int64, error) {
	if s.changeCount != nil {
		return s.changeCount()
	}
	return s.sample()
}

// Write replaces the clipboard with html and its plain-text equivalent.
func (s *System) Write(html, plain string) error {
	if err := s.write(html, plain); err != nil {
		return err
	}
	if s.changeCount == nil {
		s.mu.Lock()
		s.count++
		s.lastSum = sha256.Sum256([]byte(plain))
		s.sampled = true
		s.mu.Unlock()
	}
	return nil
}

// sample reads the text and bumps the counter when its hash changed since the
// last sample. An unreadable clipboard (commonly: empty) samples as "".
func (s *System) sample() (int64, error) {
	if !s.supported() {
		return 0, ErrUnsupported
	}
	text, err := s.readText()
	if err != nil {
		text = ""
	}
	sum := sha256.Sum256([]byte(text))

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sampled {
		s.sampled = true
		s.lastSum = sum
		return s.count, nil
	}
	if sum != s.lastSum {
		s.lastSum = sum
		s.count++
	}
	return s.count, nil
}

func (s *System) supported() bool {
	return s.available == nil || s.available()
}
