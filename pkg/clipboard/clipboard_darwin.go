//go:build darwin

package clipboard

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const changeCountScript = `ObjC.import("AppKit"); $.NSPasteboard.generalPasteboard.changeCount`

// writeScript clears the pasteboard once and sets both flavors, so the HTML
// and the plain text always belong to the same change.
const writeScript = `
ObjC.import("AppKit");
function run(argv) {
	var pb = $.NSPasteboard.generalPasteboard;
	pb.clearContents;
	var okHTML = pb.setStringForType($(argv[0]), $.NSPasteboardTypeHTML);
	var okText = pb.setStringForType($(argv[1]), $.NSPasteboardTypeString);
	return (okHTML && okText) ? "ok" : "failed";
}`

func nativeChangeCount() func() (int64, error) {
	return func() (int64, error) {
		out, err := osascript(changeCountScript)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(out, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unexpected change count %q: %w", out, err)
		}
		return n, nil
	}
}

func backend() string {
	return "nspasteboard"
}

func writeRich(html, plain string) error {
	out, err := osascript(writeScript, html, plain)
	if err != nil {
		return err
	}
	if out != "ok" {
		return fmt.Errorf("pasteboard rejected the write")
	}
	return nil
}

func osascript(script string, args ...string) (string, error) {
	cmdArgs := append([]string{"-l", "JavaScript", "-e", script}, args...)
	cmd := exec.Command("osascript", cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("osascript: %s", msg)
		}
		return "", fmt.Errorf("osascript: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ServeClipboard is only used on Wayland.
func ServeClipboard(p Payload, ready func()) error {
	return fmt.Errorf("%s is only supported on Linux/Wayland", ServeCommand)
}
