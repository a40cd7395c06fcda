//go:build linux

package clipboard

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"md2rt/pkg/clipboard/internal/wayland"

	atotto "github.com/atotto/clipboard"
)

// readyTimeout bounds how long a write waits for the serve process to own
// the selection.
const readyTimeout = 3 * time.Second

func nativeChangeCount() func() (int64, error) {
	return nil
}

func backend() string {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return "wayland"
	}
	return "x11"
}

// writeRich offers HTML and plain text on Wayland. X11 gets plain text only.
func writeRich(html, plain string) error {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		return atotto.WriteAll(plain)
	}
	return spawnServer(html, plain)
}

// spawnServer re-execs this binary as a detached selection owner and waits
// until it reports that the selection is set.
func spawnServer(html, plain string) error {
	payload, err := json.Marshal(Payload{HTML: html, Plain: plain})
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	cmd := exec.Command(exe, ServeCommand)
	cmd.Stdin = bytes.NewReader(payload)
	// New session so the owner outlives us and ignores our terminal's SIGINT.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start clipboard owner: %w", err)
	}

	ready := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(stdout).ReadString('\n')
		line = strings.TrimSpace(line)
		switch {
		case line == ReadyLine:
			ready <- nil
		case strings.HasPrefix(line, FailedPrefix):
			ready <- errors.New(strings.TrimSpace(strings.TrimPrefix(line, FailedPrefix)))
		case err != nil:
			ready <- err
		default:
			ready <- fmt.Errorf("unexpected output %q", line)
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			cmd.Wait() //nolint:errcheck
			return fmt.Errorf("clipboard owner failed: %w", err)
		}
		stdout.Close()
		return cmd.Process.Release()
	case <-time.After(readyTimeout):
		cmd.Process.Kill() //nolint:errcheck
		cmd.Wait()         //nolint:errcheck
		return fmt.Errorf("clipboard owner did not take the selection within %s", readyTimeout)
	}
}

// Flavors lists the MIME types offered for a rich write.
func Flavors(html, plain string) []wayland.Flavor {
	return []wayland.Flavor{
		{MIME: "text/html", Data: []byte(html)},
		{MIME: "text/plain;charset=utf-8", Data: []byte(plain)},
		{MIME: "text/plain", Data: []byte(plain)},
		{MIME: "UTF8_STRING", Data: []byte(plain)},
		{MIME: "STRING", Data: []byte(plain)},
		{MIME: "TEXT", Data: []byte(plain)},
	}
}

// ServeClipboard owns the Wayland selection until another client replaces
// it. ready is called once the selection is set.
func ServeClipboard(p Payload, ready func()) error {
	return wayland.Serve(Flavors(p.HTML, p.Plain), ready)
}
